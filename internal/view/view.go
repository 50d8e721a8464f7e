// Package view converts domain models into the api messages served over RPC
// and as JSON pages.
package view

import (
	"github.com/yurawu27/splittie/internal/calculator"
	"github.com/yurawu27/splittie/internal/models"
	"github.com/yurawu27/splittie/internal/money"
	api "github.com/yurawu27/splittie/pkg/api"
)

// Account never exposes the credential.
func Account(a *models.Account) *api.Account {
	if a == nil {
		return nil
	}
	return &api.Account{
		Id:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Name:      a.Name,
		Phone:     a.Phone,
		CreatedAt: a.CreatedAt,
	}
}

func Bill(b *models.Bill, f *money.Formatter) *api.Bill {
	out := &api.Bill{
		Id:            b.ID,
		Title:         b.Title,
		Currency:      f.Code(),
		Subtotal:      f.Fixed(b.Subtotal),
		Tax:           f.Fixed(b.Tax),
		Tip:           f.Fixed(b.Tip),
		Total:         f.Fixed(b.Total),
		TotalDisplay:  f.Display(b.Total),
		PayerId:       b.PayerID,
		PayerUsername: b.PayerUsername,
		Splitters:     make([]*api.Splitter, len(b.Splitters)),
		Complete:      b.Complete,
		Version:       b.Version,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	for i, s := range b.Splitters {
		items := make([]*api.Item, len(s.Items))
		for j, item := range s.Items {
			items[j] = &api.Item{Name: item.Name, Cost: f.Fixed(item.Cost)}
		}
		out.Splitters[i] = &api.Splitter{
			AccountId: s.AccountID,
			Username:  s.Username,
			Items:     items,
			// itemsCost is stored exact; show it at currency precision
			ItemsCost:        f.Fixed(s.ItemsCost),
			TaxShare:         f.Fixed(s.TaxShare),
			TipShare:         f.Fixed(s.TipShare),
			TotalOwed:        f.Fixed(s.TotalOwed),
			TotalOwedDisplay: f.Display(s.TotalOwed),
			Paid:             s.Paid,
		}
	}
	return out
}

func Bills(bills []*models.Bill, f *money.Formatter) []*api.Bill {
	out := make([]*api.Bill, len(bills))
	for i, b := range bills {
		out[i] = Bill(b, f)
	}
	return out
}

func Balances(balances []calculator.MemberBalance, debts []calculator.DebtEdge, f *money.Formatter) *api.GetBalancesResponse {
	out := &api.GetBalancesResponse{
		Balances: make([]*api.MemberBalance, len(balances)),
		Debts:    make([]*api.Debt, len(debts)),
	}
	for i, b := range balances {
		out.Balances[i] = &api.MemberBalance{
			AccountId:  b.AccountID,
			Username:   b.Username,
			Owed:       f.Fixed(b.Owed),
			Owes:       f.Fixed(b.Owes),
			NetBalance: f.Fixed(b.NetBalance),
			Display:    f.Display(b.NetBalance),
		}
	}
	for i, d := range debts {
		out.Debts[i] = &api.Debt{
			FromAccountId: d.FromID,
			FromUsername:  d.FromUsername,
			ToAccountId:   d.ToID,
			ToUsername:    d.ToUsername,
			Amount:        f.Fixed(d.Amount),
			Display:       f.Display(d.Amount),
		}
	}
	return out
}

// SplitterInputs converts submitted api splitters for the allocation engine.
func SplitterInputs(in []api.SplitterInput) []calculator.SplitterInput {
	out := make([]calculator.SplitterInput, len(in))
	for i, s := range in {
		items := make([]calculator.ItemInput, len(s.Items))
		for j, item := range s.Items {
			items[j] = calculator.ItemInput{Name: item.Name, Cost: item.Cost}
		}
		out[i] = calculator.SplitterInput{Username: s.Username, Items: items, Paid: s.Paid}
	}
	return out
}
