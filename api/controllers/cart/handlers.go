package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/selliohq/cart-backend/api/responses"
	"github.com/selliohq/cart-backend/api/validators"
	cartsvc "github.com/selliohq/cart-backend/internal/cart"
	"github.com/selliohq/cart-backend/pkg/config"
	"github.com/selliohq/cart-backend/pkg/enums"
	pkgerrors "github.com/selliohq/cart-backend/pkg/errors"
	"github.com/selliohq/cart-backend/pkg/logger"
)

// ActiveCartFetch returns the caller's ACTIVE cart. Identity comes from the
// user_id query value or, for anonymous shoppers, the cart cookie.
func ActiveCartFetch(svc cartsvc.Service, cfg config.CookieConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := validators.Int64Query(r, "company_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := validators.OptionalInt64Query(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var userPtr *int64
		if userID > 0 {
			userPtr = &userID
		}
		identity := identityFromRequest(r, cfg.Name, companyID, userPtr)
		if identity.UserID == nil && identity.Cookie == nil {
			// First visit: mint the cart cookie so the next request is
			// identifiable. A token this fresh cannot have a cart yet.
			ensureAnonymousCookie(w, cfg, identity)
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found"))
			return
		}

		dto, err := svc.GetActiveCart(r.Context(), identity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CartFetch returns a cart by id.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID, err := validators.Int64URLParam(r, "cartID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetCart(r.Context(), cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CartsByUser lists a user's carts, optionally narrowed by company and status.
func CartsByUser(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.Int64Query(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		companyID, err := validators.OptionalInt64Query(r, "company_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		statusValue, err := validators.OptionalIntQuery(r, "status")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.PaginationQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := cartsvc.ListFilters{CompanyID: companyID}
		if statusValue > 0 {
			status, err := enums.ParseCartStatus(statusValue)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = status
		}

		dtos, err := svc.ListByUser(r.Context(), cartsvc.ListByUserInput{
			UserID:  userID,
			Filters: filters,
			Page:    page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dtos)
	}
}

// CartsByIDs bulk-fetches carts by id, preserving request order.
func CartsByIDs(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload CartsByIDsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos, err := svc.ListByIDs(r.Context(), payload.CartIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dtos)
	}
}

// CartUpsert resolves or creates the identity's ACTIVE cart. Anonymous
// callers without a cart cookie get one minted here.
func CartUpsert(svc cartsvc.Service, cfg config.CookieConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload UpsertCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity := identityFromRequest(r, cfg.Name, payload.CompanyID, payload.UserID)
		identity = ensureAnonymousCookie(w, cfg, identity)

		dto, err := svc.UpsertCart(r.Context(), identity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// CartAddItem is the composite write path: resolve-or-create the ACTIVE
// cart for the identity and upsert the product line in one transaction.
func CartAddItem(svc cartsvc.Service, cfg config.CookieConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := payload.toItemInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity := identityFromRequest(r, cfg.Name, payload.CompanyID, payload.UserID)
		identity = ensureAnonymousCookie(w, cfg, identity)

		dto, err := svc.AddItem(r.Context(), identity, item)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CartItemUpsert writes a product line on an existing cart.
func CartItemUpsert(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID, err := validators.Int64URLParam(r, "cartID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := payload.toItemInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.UpsertItem(r.Context(), cartID, item)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CartItemQuantityUpdate sets a line's quantity; zero or less removes it.
func CartItemQuantityUpdate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID, err := validators.Int64URLParam(r, "cartID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.Int64URLParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload UpdateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.UpdateItemQuantity(r.Context(), cartID, productID, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CartItemRemove deletes a product line from a cart.
func CartItemRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID, err := validators.Int64URLParam(r, "cartID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.Int64URLParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.RemoveItem(r.Context(), cartID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CartStatusUpdate advances the cart lifecycle.
func CartStatusUpdate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID, err := validators.Int64URLParam(r, "cartID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ChangeStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseCartStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart status"))
			return
		}

		dto, err := svc.ChangeStatus(r.Context(), cartID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// identityFromRequest builds the cart identity: an authenticated user id
// wins, otherwise the cart cookie identifies the anonymous shopper.
func identityFromRequest(r *http.Request, cookieName string, companyID int64, userID *int64) cartsvc.Identity {
	identity := cartsvc.Identity{CompanyID: companyID, UserID: userID}
	if userID != nil {
		return identity
	}
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		value := c.Value
		identity.Cookie = &value
	}
	return identity
}

// ensureAnonymousCookie mints and sets a cart cookie for anonymous callers
// that arrive without one, so their cart survives across requests.
func ensureAnonymousCookie(w http.ResponseWriter, cfg config.CookieConfig, identity cartsvc.Identity) cartsvc.Identity {
	if identity.UserID != nil || identity.Cookie != nil {
		return identity
	}

	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	identity.Cookie = &token
	return identity
}
