package models

// Table names carried by change events.
const (
	TableTransactions = "transactions"
	TableBudgets      = "budgets"
	TableInvestments  = "investments"
)

// ChangeKind is the kind of row change being broadcast.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// ChangeEvent notifies subscribers of a committed row change. Exactly one of
// the record pointers is set for inserts and updates; deletes carry only ID.
type ChangeEvent struct {
	Table       string       `json:"table"`
	Kind        ChangeKind   `json:"kind"`
	OwnerID     string       `json:"owner_id"`
	ID          string       `json:"id"`
	Transaction *Transaction `json:"transaction,omitempty"`
	Budget      *Budget      `json:"budget,omitempty"`
	Investment  *Investment  `json:"investment,omitempty"`
}
