package workflow

import (
	"github.com/google/uuid"

	"requestdesk/internal/model"
)

const actionEdit Action = "EDIT"

// ErrLastItem is returned when removing the only line item of a resource request.
var ErrLastItem = &Error{Kind: KindInvalid, Action: actionEdit, Reason: "Request must have at least one item"}

// CanEdit reports whether a may change the fields or items of r.
func CanEdit(a Actor, r *model.Request) bool {
	return r.Status == model.StatusPending && isRequester(a, r)
}

// CheckEdit returns a user-facing error when a may not edit r.
func CheckEdit(a Actor, r *model.Request) error {
	if !isRequester(a, r) {
		return forbidden(actionEdit, "Only the requester can edit this request")
	}
	if r.Status != model.StatusPending {
		return conflict(actionEdit, "Only pending requests can be edited")
	}
	return nil
}

// CheckItemQuantity validates a quantity change on one line item of r.
func CheckItemQuantity(a Actor, r *model.Request, itemID uuid.UUID, quantity int) error {
	if err := checkItem(a, r, itemID); err != nil {
		return err
	}
	if quantity < 1 {
		return invalid(actionEdit, "Quantity must be at least 1")
	}
	return nil
}

// CheckRemoveItem validates removing a line item; the last one cannot go.
func CheckRemoveItem(a Actor, r *model.Request, itemID uuid.UUID) error {
	if err := checkItem(a, r, itemID); err != nil {
		return err
	}
	if len(r.Items()) == 1 {
		return ErrLastItem
	}
	return nil
}

// CheckAddItem validates adding a line item to r.
func CheckAddItem(a Actor, r *model.Request, quantity int) error {
	if r.Type != model.RequestTypeResource {
		return invalid(actionEdit, "Only resource requests have items")
	}
	if err := CheckEdit(a, r); err != nil {
		return err
	}
	if quantity < 1 {
		return invalid(actionEdit, "Quantity must be at least 1")
	}
	return nil
}

func checkItem(a Actor, r *model.Request, itemID uuid.UUID) error {
	if r.Type != model.RequestTypeResource {
		return invalid(actionEdit, "Only resource requests have items")
	}
	if err := CheckEdit(a, r); err != nil {
		return err
	}
	for _, it := range r.Items() {
		if it.ID == itemID {
			return nil
		}
	}
	return invalid(actionEdit, "Item does not belong to this request")
}
