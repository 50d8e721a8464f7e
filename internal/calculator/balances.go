package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yurawu27/splittie/internal/models"
)

// MemberBalance represents the outstanding balance for one account.
type MemberBalance struct {
	AccountID  string
	Username   string
	Owed       decimal.Decimal // Unpaid amounts others owe this account
	Owes       decimal.Decimal // Unpaid amounts this account owes others
	NetBalance decimal.Decimal // Positive = owed money, Negative = owes money
}

// DebtEdge represents a debt from one account to another.
type DebtEdge struct {
	FromID       string // Account that owes
	FromUsername string
	ToID         string // Account that is owed
	ToUsername   string
	Amount       decimal.Decimal
}

// CalculateBalances aggregates unpaid splitter shares across bills.
//
// Algorithm:
//   - For each bill: every unpaid splitter other than the payer owes the payer totalOwed
//   - Aggregate: net_balance = owed - owes
//   - Debt list: simplified using greedy matching of the largest debtor with the largest creditor
//
// Balances and debts are returned in a deterministic order (largest first,
// ties broken by username).
func CalculateBalances(bills []*models.Bill) ([]MemberBalance, []DebtEdge) {
	balances := make(map[string]*MemberBalance)
	member := func(id, username string) *MemberBalance {
		bal, ok := balances[id]
		if !ok {
			bal = &MemberBalance{AccountID: id, Username: username}
			balances[id] = bal
		}
		if bal.Username == "" {
			bal.Username = username
		}
		return bal
	}

	for _, bill := range bills {
		if bill.PayerID == "" {
			continue
		}
		payer := member(bill.PayerID, bill.PayerUsername)
		for _, s := range bill.Splitters {
			if s.AccountID == bill.PayerID || s.Paid {
				continue
			}
			debtor := member(s.AccountID, s.Username)
			debtor.Owes = debtor.Owes.Add(s.TotalOwed)
			payer.Owed = payer.Owed.Add(s.TotalOwed)
		}
	}

	var memberBalances []MemberBalance
	var creditors, debtors []*MemberBalance
	for _, bal := range balances {
		bal.NetBalance = bal.Owed.Sub(bal.Owes)
		memberBalances = append(memberBalances, *bal)
		switch {
		case bal.NetBalance.IsPositive():
			creditors = append(creditors, bal)
		case bal.NetBalance.IsNegative():
			debtors = append(debtors, bal)
		}
	}

	sort.Slice(memberBalances, func(i, j int) bool {
		a, b := memberBalances[i], memberBalances[j]
		if !a.NetBalance.Equal(b.NetBalance) {
			return a.NetBalance.GreaterThan(b.NetBalance)
		}
		return a.Username < b.Username
	})
	sort.Slice(creditors, func(i, j int) bool {
		return largerFirst(creditors[i].NetBalance, creditors[j].NetBalance, creditors[i].Username, creditors[j].Username)
	})
	sort.Slice(debtors, func(i, j int) bool {
		return largerFirst(debtors[i].NetBalance.Neg(), debtors[j].NetBalance.Neg(), debtors[i].Username, debtors[j].Username)
	})

	// Greedy algorithm: match largest debts with largest credits
	debtorBalance := make([]decimal.Decimal, len(debtors))
	for i, d := range debtors {
		debtorBalance[i] = d.NetBalance.Neg() // Make positive
	}
	creditorBalance := make([]decimal.Decimal, len(creditors))
	for j, c := range creditors {
		creditorBalance[j] = c.NetBalance
	}

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := decimal.Min(debtorBalance[i], creditorBalance[j])
		if amount.IsPositive() {
			edges = append(edges, DebtEdge{
				FromID:       debtors[i].AccountID,
				FromUsername: debtors[i].Username,
				ToID:         creditors[j].AccountID,
				ToUsername:   creditors[j].Username,
				Amount:       amount,
			})
		}

		debtorBalance[i] = debtorBalance[i].Sub(amount)
		creditorBalance[j] = creditorBalance[j].Sub(amount)

		// Move to next debtor/creditor if fully settled
		if !debtorBalance[i].IsPositive() {
			i++
		}
		if !creditorBalance[j].IsPositive() {
			j++
		}
	}

	return memberBalances, edges
}

func largerFirst(a, b decimal.Decimal, aName, bName string) bool {
	if !a.Equal(b) {
		return a.GreaterThan(b)
	}
	return aName < bName
}
