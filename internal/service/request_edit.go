package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"requestdesk/internal/model"
	"requestdesk/internal/workflow"
)

const fileURLTTL = 15 * time.Minute

// fieldChange is one edited field, recorded as a FIELD_UPDATE activity.
type fieldChange struct {
	entity   model.EntityType
	path     string
	from, to string
}

type changeSet []fieldChange

func (c *changeSet) str(entity model.EntityType, path string, dst *string, v *string) {
	if v == nil || *v == *dst {
		return
	}
	*c = append(*c, fieldChange{entity, path, *dst, *v})
	*dst = *v
}

func (c *changeSet) at(entity model.EntityType, path string, dst *time.Time, v *time.Time) {
	if v == nil || v.Equal(*dst) {
		return
	}
	*c = append(*c, fieldChange{entity, path, dst.Format(time.RFC3339), v.Format(time.RFC3339)})
	*dst = *v
}

func (c *changeSet) list(entity model.EntityType, path string, dst *datatypes.JSONSlice[string], v []string) {
	if v == nil || strings.Join(*dst, "\x00") == strings.Join(v, "\x00") {
		return
	}
	*c = append(*c, fieldChange{entity, path, strings.Join(*dst, ", "), strings.Join(v, ", ")})
	*dst = datatypes.JSONSlice[string](v)
}

func (s *requestService) Update(ctx context.Context, actor workflow.Actor, id uuid.UUID, in UpdateRequestInput) (*RequestResponse, error) {
	return s.mutate(ctx, actor, id, func(txCtx context.Context, r *model.Request) (bool, []uuid.UUID, error) {
		if err := workflow.CheckEdit(actor, r); err != nil {
			return false, nil, err
		}

		var changes changeSet
		changes.str(model.EntityRequest, "title", &r.Title, in.Title)
		if in.Priority != nil && *in.Priority != r.Priority {
			changes = append(changes, fieldChange{model.EntityRequest, "priority", string(r.Priority), string(*in.Priority)})
			r.Priority = *in.Priority
		}
		headerChanges := len(changes)

		if err := applyDetailEdits(r, in, &changes); err != nil {
			return false, nil, err
		}
		if len(changes) == 0 {
			return false, nil, nil
		}

		if headerChanges > 0 {
			if err := s.repos.Requests.UpdateHeader(txCtx, r); err != nil {
				return false, nil, fmt.Errorf("failed to update request: %w", err)
			}
		}
		if len(changes) > headerChanges {
			if err := s.saveDetail(txCtx, r); err != nil {
				return false, nil, err
			}
		}

		entries := make([]*model.Activity, 0, len(changes))
		for _, ch := range changes {
			entries = append(entries, newActivity(actor, r, model.ChangeFieldUpdate, ch.entity, ch.from, ch.to,
				map[string]interface{}{"path": ch.path}))
		}
		if err := s.repos.Activity.Log(txCtx, entries...); err != nil {
			return false, nil, fmt.Errorf("failed to write activity: %w", err)
		}
		return true, nil, nil
	})
}

// applyDetailEdits copies the detail fields of in onto r's detail record.
func applyDetailEdits(r *model.Request, in UpdateRequestInput, c *changeSet) error {
	switch {
	case r.JobRequest != nil:
		j := r.JobRequest
		c.str(model.EntityJobRequest, "job_type", &j.JobType, in.JobType)
		c.at(model.EntityJobRequest, "due_date", &j.DueDate, in.DueDate)
		c.str(model.EntityJobRequest, "notes", &j.Notes, in.Notes)
		if in.EstimatedTime != nil {
			if in.EstimatedTime.IsNegative() {
				return newError(ErrValidation, "Estimated time cannot be negative")
			}
			est := in.EstimatedTime.Round(2)
			if !j.EstimatedTime.Valid || !j.EstimatedTime.Decimal.Equal(est) {
				old := ""
				if j.EstimatedTime.Valid {
					old = j.EstimatedTime.Decimal.StringFixed(2)
				}
				*c = append(*c, fieldChange{model.EntityJobRequest, "estimated_time", old, est.StringFixed(2)})
				j.EstimatedTime = decimal.NewNullDecimal(est)
			}
		}

	case r.VenueRequest != nil:
		v := r.VenueRequest
		c.at(model.EntityVenueRequest, "start_time", &v.StartTime, in.StartTime)
		c.at(model.EntityVenueRequest, "end_time", &v.EndTime, in.EndTime)
		c.str(model.EntityVenueRequest, "purpose", &v.Purpose, in.Purpose)
		c.list(model.EntityVenueRequest, "setup_requirements", &v.SetupRequirements, in.SetupRequirements)
		if !v.EndTime.After(v.StartTime) {
			return newError(ErrValidation, "End time must be after start time")
		}

	case r.TransportRequest != nil:
		t := r.TransportRequest
		c.str(model.EntityTransportRequest, "destination", &t.Destination, in.Destination)
		c.at(model.EntityTransportRequest, "date_and_time_needed", &t.DateAndTimeNeeded, in.DateAndTimeNeeded)
		c.list(model.EntityTransportRequest, "passengers_name", &t.PassengersName, in.PassengersName)
		c.str(model.EntityTransportRequest, "description", &t.Description, in.Description)

	case r.SupplyRequest != nil:
		sr := r.SupplyRequest
		c.at(model.EntitySupplyRequest, "date_and_time_needed", &sr.DateAndTimeNeeded, in.DateAndTimeNeeded)
		c.str(model.EntitySupplyRequest, "purpose", &sr.Purpose, in.Purpose)

	case r.ReturnableRequest != nil:
		rr := r.ReturnableRequest
		c.at(model.EntityReturnableRequest, "date_and_time_needed", &rr.DateAndTimeNeeded, in.DateAndTimeNeeded)
		c.str(model.EntityReturnableRequest, "purpose", &rr.Purpose, in.Purpose)
		c.at(model.EntityReturnableRequest, "return_date_and_time", &rr.ReturnDateAndTime, in.ReturnDateAndTime)
		if !rr.ReturnDateAndTime.After(rr.DateAndTimeNeeded) {
			return newError(ErrValidation, "Return date must be after the date needed")
		}
	}
	return nil
}

func resourceEntity(r *model.Request) model.EntityType {
	if r.ReturnableRequest != nil {
		return model.EntityReturnableRequest
	}
	return model.EntitySupplyRequest
}

func findItem(r *model.Request, itemID uuid.UUID) *model.RequestItem {
	items := r.Items()
	for i := range items {
		if items[i].ID == itemID {
			return &items[i]
		}
	}
	return nil
}

func itemName(it *model.RequestItem) string {
	if it.SupplyItem != nil {
		return it.SupplyItem.Name
	}
	return it.SupplyItemID.String()
}

func (s *requestService) UpdateItemQuantity(ctx context.Context, actor workflow.Actor, id, itemID uuid.UUID, quantity int) (*RequestResponse, error) {
	return s.mutate(ctx, actor, id, func(txCtx context.Context, r *model.Request) (bool, []uuid.UUID, error) {
		if err := workflow.CheckItemQuantity(actor, r, itemID, quantity); err != nil {
			return false, nil, err
		}
		item := findItem(r, itemID)
		if item.Quantity == quantity {
			return false, nil, nil
		}
		if err := s.repos.Requests.UpdateItemQuantity(txCtx, itemID, quantity); err != nil {
			return false, nil, fmt.Errorf("failed to update item: %w", err)
		}
		entry := newActivity(actor, r, model.ChangeItemQuantity, resourceEntity(r),
			strconv.Itoa(item.Quantity), strconv.Itoa(quantity),
			map[string]interface{}{"item_id": itemID, "item": itemName(item)})
		item.Quantity = quantity
		if err := s.repos.Activity.Log(txCtx, entry); err != nil {
			return false, nil, fmt.Errorf("failed to write activity: %w", err)
		}
		return true, nil, nil
	})
}

func (s *requestService) RemoveItem(ctx context.Context, actor workflow.Actor, id, itemID uuid.UUID) (*RequestResponse, error) {
	return s.mutate(ctx, actor, id, func(txCtx context.Context, r *model.Request) (bool, []uuid.UUID, error) {
		if err := workflow.CheckRemoveItem(actor, r, itemID); err != nil {
			return false, nil, err
		}
		item := findItem(r, itemID)
		if err := s.repos.Requests.DeleteItem(txCtx, itemID); err != nil {
			return false, nil, fmt.Errorf("failed to remove item: %w", err)
		}
		entry := newActivity(actor, r, model.ChangeItemRemoved, resourceEntity(r), strconv.Itoa(item.Quantity), "",
			map[string]interface{}{"item_id": itemID, "item": itemName(item)})
		if err := s.repos.Activity.Log(txCtx, entry); err != nil {
			return false, nil, fmt.Errorf("failed to write activity: %w", err)
		}
		return true, nil, nil
	})
}

func (s *requestService) AddItem(ctx context.Context, actor workflow.Actor, id uuid.UUID, in ItemInput) (*RequestResponse, error) {
	return s.mutate(ctx, actor, id, func(txCtx context.Context, r *model.Request) (bool, []uuid.UUID, error) {
		if err := workflow.CheckAddItem(actor, r, in.Quantity); err != nil {
			return false, nil, err
		}
		for _, it := range r.Items() {
			if it.SupplyItemID == in.SupplyItemID {
				return false, nil, newError(ErrValidation, "Item is already on this request")
			}
		}
		items, err := s.buildItems(txCtx, []ItemInput{in}, r.ReturnableRequest != nil)
		if err != nil {
			return false, nil, err
		}
		item := items[0]
		item.RequestID = r.ID
		if err := s.repos.Requests.AddItem(txCtx, &item); err != nil {
			return false, nil, fmt.Errorf("failed to add item: %w", err)
		}
		entry := newActivity(actor, r, model.ChangeItemAdded, resourceEntity(r), "", strconv.Itoa(item.Quantity),
			map[string]interface{}{"item_id": item.ID, "supply_item_id": item.SupplyItemID})
		if err := s.repos.Activity.Log(txCtx, entry); err != nil {
			return false, nil, fmt.Errorf("failed to write activity: %w", err)
		}
		return true, nil, nil
	})
}

// AttachFile uploads a file for a job request. The object is removed again
// when the database write fails.
func (s *requestService) AttachFile(ctx context.Context, actor workflow.Actor, id uuid.UUID, file FileUpload) (*model.JobFile, error) {
	res, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	r := &res.Request
	if r.JobRequest == nil {
		return nil, newError(ErrValidation, "Files can only be attached to job requests")
	}
	if !workflow.Can(actor, workflow.CapEdit, r) && !workflow.Can(actor, workflow.CapUpdateJob, r) {
		return nil, newError(ErrForbidden, "You cannot attach files to this request")
	}

	obj, err := s.files.Upload(ctx, "requests/"+r.ID.String(), file.FileName, file.Content, file.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	jf := &model.JobFile{
		JobRequestID: r.JobRequest.ID,
		ObjectKey:    obj.Key,
		FileName:     file.FileName,
		ContentType:  obj.ContentType,
		Size:         obj.Size,
		UploadedByID: actor.ID,
	}
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Requests.AddJobFile(txCtx, jf); err != nil {
			return fmt.Errorf("failed to save file: %w", err)
		}
		entry := newActivity(actor, r, model.ChangeFileAttached, model.EntityJobRequest, "", file.FileName,
			map[string]interface{}{"file_id": jf.ID, "size": jf.Size})
		return s.repos.Activity.Log(txCtx, entry)
	})
	if err != nil {
		if derr := s.files.Delete(ctx, obj.Key); derr != nil {
			log.WithError(derr).WithField("key", obj.Key).Warn("failed to remove orphaned upload")
		}
		return nil, err
	}

	s.notifier.Committed(ctx, r, nil)
	return jf, nil
}

func (s *requestService) FileURL(ctx context.Context, actor workflow.Actor, id, fileID uuid.UUID) (string, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return "", err
	}
	f, err := s.repos.Requests.FindJobFile(ctx, id, fileID)
	if err != nil {
		return "", lookupErr(err, "File")
	}
	url, err := s.files.PresignedURL(ctx, f.ObjectKey, fileURLTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign file url: %w", err)
	}
	return url, nil
}
