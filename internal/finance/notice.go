package finance

import "time"

// NoticeKind distinguishes confirmations from failures.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeFailure NoticeKind = "failure"
)

// Notice is a brief user-facing message about an action. Failure messages
// name the action and never carry backend error text.
type Notice struct {
	Kind    NoticeKind
	Action  string
	Message string
	At      time.Time
}

type action struct {
	name     string
	success  string
	failure  string
	activity string
}

var (
	actionLoad              = action{name: "load", failure: "Could not refresh your data"}
	actionAddTransaction    = action{"add_transaction", "Transaction added", "Could not add transaction", "transaction_added"}
	actionUpdateTransaction = action{"update_transaction", "Transaction updated", "Could not update transaction", "transaction_updated"}
	actionDeleteTransaction = action{"delete_transaction", "Transaction deleted", "Could not delete transaction", "transaction_deleted"}
	actionResetLedger       = action{"reset_ledger", "All transactions removed", "Could not reset transactions", "ledger_reset"}
	actionSaveBudget        = action{"save_budget", "Budget saved", "Could not save budget", "budget_saved"}
	actionDeleteBudget      = action{"delete_budget", "Budget deleted", "Could not delete budget", "budget_deleted"}
	actionRecordInvestment  = action{"record_investment", "Investment recorded", "Could not record investment", "investment_recorded"}
	actionDeleteInvestment  = action{"delete_investment", "Investment deleted", "Could not delete investment", "investment_deleted"}
	actionSetCurrency       = action{name: "set_currency", success: "Currency updated", failure: "Could not change currency"}
)
