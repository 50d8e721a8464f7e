package api

// ItemInput is a submitted line item. A nil Name means the field was absent.
type ItemInput struct {
	Name *string `json:"name,omitempty"`
	Cost string  `json:"cost"`
}

// SplitterInput is one participant's submitted items.
type SplitterInput struct {
	Username string      `json:"username"`
	Items    []ItemInput `json:"items"`
	Paid     bool        `json:"paid,omitempty"`
}

// BillInput is a full bill submission. Updates replace every field.
type BillInput struct {
	Title         string          `json:"title"`
	Subtotal      string          `json:"subtotal"`
	Tax           string          `json:"tax,omitempty"`
	Tip           string          `json:"tip,omitempty"`
	PayerUsername string          `json:"payerUsername"`
	Splitters     []SplitterInput `json:"splitters"`
	Complete      bool            `json:"complete,omitempty"`
}

type Item struct {
	Name string `json:"name"`
	Cost string `json:"cost"`
}

type Splitter struct {
	AccountId        string  `json:"accountId"`
	Username         string  `json:"username"`
	Items            []*Item `json:"items"`
	ItemsCost        string  `json:"itemsCost"`
	TaxShare         string  `json:"taxShare"`
	TipShare         string  `json:"tipShare"`
	TotalOwed        string  `json:"totalOwed"`
	TotalOwedDisplay string  `json:"totalOwedDisplay"`
	Paid             bool    `json:"paid"`
}

type Bill struct {
	Id            string      `json:"id"`
	Title         string      `json:"title"`
	Currency      string      `json:"currency"`
	Subtotal      string      `json:"subtotal"`
	Tax           string      `json:"tax"`
	Tip           string      `json:"tip"`
	Total         string      `json:"total"`
	TotalDisplay  string      `json:"totalDisplay"`
	PayerId       string      `json:"payerId"`
	PayerUsername string      `json:"payerUsername"`
	Splitters     []*Splitter `json:"splitters"`
	Complete      bool        `json:"complete"`
	Version       int64       `json:"version"`
	CreatedAt     int64       `json:"createdAt"`
	UpdatedAt     int64       `json:"updatedAt"`
}

type CreateBillRequest struct {
	Bill *BillInput `json:"bill"`
}

type CreateBillResponse struct {
	Bill *Bill `json:"bill"`
	// Warning is set when the bill was saved but some participants' bill
	// lists could not be updated yet.
	Warning string `json:"warning,omitempty"`
}

type UpdateBillRequest struct {
	BillId string     `json:"billId"`
	Bill   *BillInput `json:"bill"`
	// ExpectedVersion rejects the update when the bill has changed since it
	// was read. Zero skips the check.
	ExpectedVersion int64 `json:"expectedVersion,omitempty"`
}

type UpdateBillResponse struct {
	Bill    *Bill  `json:"bill"`
	Warning string `json:"warning,omitempty"`
}

type DeleteBillRequest struct {
	BillId string `json:"billId"`
}

type DeleteBillResponse struct {
	AlreadyGone bool   `json:"alreadyGone,omitempty"`
	Warning     string `json:"warning,omitempty"`
}

type GetBillRequest struct {
	BillId string `json:"billId"`
}

type GetBillResponse struct {
	Bill *Bill `json:"bill"`
}

type ListBillsRequest struct{}

type ListBillsResponse struct {
	Bills []*Bill `json:"bills"`
}

type MemberBalance struct {
	AccountId  string `json:"accountId"`
	Username   string `json:"username"`
	Owed       string `json:"owed"`
	Owes       string `json:"owes"`
	NetBalance string `json:"netBalance"`
	Display    string `json:"display"`
}

type Debt struct {
	FromAccountId string `json:"fromAccountId"`
	FromUsername  string `json:"fromUsername"`
	ToAccountId   string `json:"toAccountId"`
	ToUsername    string `json:"toUsername"`
	Amount        string `json:"amount"`
	Display       string `json:"display"`
}

type GetBalancesRequest struct{}

type GetBalancesResponse struct {
	Balances []*MemberBalance `json:"balances"`
	Debts    []*Debt          `json:"debts"`
}
