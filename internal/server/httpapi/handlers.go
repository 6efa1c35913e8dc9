package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bookshelf/internal/common"
	"github.com/dmitrijs2005/bookshelf/internal/server/models"
	"github.com/dmitrijs2005/bookshelf/internal/server/services"
	"github.com/gorilla/mux"
)

const (
	maxBodyBytes       = 1 << 20
	healthCheckTimeout = 2 * time.Second
)

func decodeJSON(w http.ResponseWriter, req *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return common.NewValidationError("", "invalid JSON body")
	}
	return nil
}

// callerID is only called behind the auth gate.
func callerID(req *http.Request) (string, error) {
	id, ok := UserIDFromContext(req.Context())
	if !ok {
		return "", common.ErrUnauthenticated
	}
	return id, nil
}

func (s *Server) handleSignup(w http.ResponseWriter, req *http.Request) error {
	var body signupRequest
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	user, token, err := s.deps.Users.Register(req.Context(), services.RegisterInput{
		Name: body.Name, Email: body.Email, Password: body.Password,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: newUserDTO(user, false)})
	return nil
}

func (s *Server) handleLogin(w http.ResponseWriter, req *http.Request) error {
	var body loginRequest
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	user, token, err := s.deps.Users.Authenticate(req.Context(), body.Email, body.Password)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: newUserDTO(user, false)})
	return nil
}

func (s *Server) handleCartList(w http.ResponseWriter, req *http.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return err
	}
	items, err := s.deps.Cart.List(req.Context(), userID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, newCartResponse(items))
	return nil
}

func (s *Server) handleCartAdd(w http.ResponseWriter, req *http.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return err
	}
	var body addToCartRequest
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	outcome, err := s.deps.Cart.Add(req.Context(), userID, services.AddItemInput{
		ItemID:     string(body.ID),
		Title:      body.Title,
		Author:     body.Author,
		Price:      body.Price,
		ImageRef:   body.Image,
		ContentRef: body.PDFURL,
	})
	if err != nil {
		return err
	}
	status := http.StatusOK
	if outcome == models.OutcomeCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, cartAddResponse{Status: string(outcome)})
	return nil
}

func (s *Server) handleCartRemove(w http.ResponseWriter, req *http.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return err
	}
	if err := s.deps.Cart.Remove(req.Context(), userID, mux.Vars(req)["itemId"]); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "removed"})
	return nil
}

func (s *Server) handleCartClear(w http.ResponseWriter, req *http.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return err
	}
	n, err := s.deps.Cart.Clear(req.Context(), userID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, cartClearResponse{Removed: n})
	return nil
}

func (s *Server) handleCheckout(w http.ResponseWriter, req *http.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return err
	}
	res, err := s.deps.Checkout.Checkout(req.Context(), userID)
	if err != nil {
		return err
	}
	s.metrics.checkoutItems.Add(float64(res.ItemsProcessed))
	writeJSON(w, http.StatusOK, checkoutResponse{
		Message:        "checkout successful",
		ItemsProcessed: res.ItemsProcessed,
		CheckoutID:     res.CheckoutID,
		Total:          res.Total,
		PurchasedAt:    res.PurchasedAt,
	})
	return nil
}

func (s *Server) handlePurchases(w http.ResponseWriter, req *http.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return err
	}
	recs, err := s.deps.Purchases.List(req.Context(), userID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, newPurchasesResponse(recs))
	return nil
}

func (s *Server) handleProfileGet(w http.ResponseWriter, req *http.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return err
	}
	user, err := s.deps.Users.Profile(req.Context(), userID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, profileResponse{User: newUserDTO(user, true)})
	return nil
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, req *http.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return err
	}
	var body profileUpdateRequest
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	user, err := s.deps.Users.UpdateProfile(req.Context(), userID, services.UpdateProfileInput{
		Name: body.Name, Email: body.Email,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, profileResponse{User: newUserDTO(user, true)})
	return nil
}

func (s *Server) handleProfileDelete(w http.ResponseWriter, req *http.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return err
	}
	if err := s.deps.Users.DeleteAccount(req.Context(), userID); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if s.deps.DBHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := s.deps.DBHealth(ctx); err != nil {
			s.logger.Warn(req.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}
