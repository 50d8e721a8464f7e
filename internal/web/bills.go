package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/yurawu27/splittie/internal/apperr"
	"github.com/yurawu27/splittie/internal/billing"
	"github.com/yurawu27/splittie/internal/middleware"
	"github.com/yurawu27/splittie/internal/view"
)

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.manager.List(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		if s.expiredSession(w, r, err) {
			return
		}
		s.logger.Error("Failed to list bills", "error", err)
		http.Error(w, "Error retrieving your bills.", http.StatusInternalServerError)
		return
	}
	s.render(w, r, page{Page: "bills", Bills: view.Bills(bills, s.formatter)})
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	bill, err := s.manager.Get(r.Context(), middleware.GetAccountID(r.Context()), r.PathValue("id"))
	if err != nil {
		s.pageError(w, r, err, "Error loading bill details.")
		return
	}
	s.render(w, r, page{Page: "bill", Bill: view.Bill(bill, s.formatter)})
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, page{Page: "create"})
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	const formPath = "/bills/create"
	if err := r.ParseForm(); err != nil {
		s.redirect(w, r, formPath, failure("Error creating the bill."))
		return
	}

	res, err := s.manager.Create(r.Context(), middleware.GetAccountID(r.Context()), billInput(r, 0))
	if err != nil {
		if s.expiredSession(w, r, err) {
			return
		}
		if apperr.KindOf(err) == apperr.KindInternal {
			s.logger.Error("Failed to create bill", "error", err)
		}
		s.redirect(w, r, formPath, failure(displayMessage(err, "Error creating the bill.")))
		return
	}

	s.redirect(w, r, "/bills", success("Bill created successfully."), warning(res.Warning))
}

func (s *Server) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	bill, err := s.manager.Get(r.Context(), middleware.GetAccountID(r.Context()), r.PathValue("id"))
	if err != nil {
		s.pageError(w, r, err, "Error loading bill details.")
		return
	}
	s.render(w, r, page{Page: "update", Bill: view.Bill(bill, s.formatter)})
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	formPath := "/bills/update/" + id
	if err := r.ParseForm(); err != nil {
		s.redirect(w, r, formPath, failure("Error updating the bill."))
		return
	}

	// version is optional; without it the update is last-write-wins
	version, _ := strconv.ParseInt(strings.TrimSpace(r.PostForm.Get("version")), 10, 64)

	res, err := s.manager.Update(r.Context(), middleware.GetAccountID(r.Context()), id, billInput(r, version))
	if err != nil {
		switch {
		case s.expiredSession(w, r, err):
		case apperr.CodeOf(err) == apperr.CodeBillNotFound:
			s.redirect(w, r, "/bills", failure("Bill not found."))
		case apperr.Is(err, apperr.KindForbidden):
			s.redirect(w, r, "/bills", failure(displayMessage(err, "")))
		case apperr.KindOf(err) == apperr.KindInternal:
			s.logger.Error("Failed to update bill", "bill_id", id, "error", err)
			http.Error(w, "Error updating the bill.", http.StatusInternalServerError)
		default:
			s.redirect(w, r, formPath, failure(displayMessage(err, "Error updating the bill.")))
		}
		return
	}

	s.redirect(w, r, "/bills", success("Bill updated successfully."), warning(res.Warning))
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res, err := s.manager.Delete(r.Context(), middleware.GetAccountID(r.Context()), id)
	if err != nil {
		if s.expiredSession(w, r, err) {
			return
		}
		if apperr.KindOf(err) == apperr.KindInternal {
			s.logger.Error("Failed to delete bill", "bill_id", id, "error", err)
		}
		s.redirect(w, r, "/bills", failure(displayMessage(err, "Error deleting the bill.")))
		return
	}
	if res.AlreadyGone {
		s.redirect(w, r, "/bills", failure("Bill not found."))
		return
	}

	s.redirect(w, r, "/bills", success("Bill deleted successfully."), warning(res.Warning))
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, debts, err := s.manager.Balances(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		if s.expiredSession(w, r, err) {
			return
		}
		s.logger.Error("Failed to compute balances", "error", err)
		http.Error(w, "Error computing balances.", http.StatusInternalServerError)
		return
	}
	s.render(w, r, page{Page: "balances", Balances: view.Balances(balances, debts, s.formatter)})
}

// pageError answers a GET that could not load its bill with a plain status page.
func (s *Server) pageError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if s.expiredSession(w, r, err) {
		return
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Failed to load bill", "path", r.URL.Path, "error", err)
		http.Error(w, fallback, status)
		return
	}
	http.Error(w, displayMessage(err, fallback), status)
}

func billInput(r *http.Request, expectedVersion int64) billing.BillInput {
	form := parseBillForm(r.PostForm)
	return billing.BillInput{
		Title:           form.Title,
		Subtotal:        form.Subtotal,
		Tax:             form.Tax,
		Tip:             form.Tip,
		PayerUsername:   form.Payer,
		Splitters:       view.SplitterInputs(form.Splitters),
		Complete:        form.Complete,
		ExpectedVersion: expectedVersion,
	}
}
