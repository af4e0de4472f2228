package service

import (
	"context"
	"strings"

	"healthwatch/internal/model"
	"healthwatch/internal/store"
)

type ContactService struct {
	groups store.Collection[*model.ContactGroup]
}

func NewContactService(groups store.Collection[*model.ContactGroup]) *ContactService {
	return &ContactService{groups: groups}
}

// List returns contact groups newest first. Admins see every group, workers
// only their own.
func (s *ContactService) List(ctx context.Context, userID string, role model.Role) ([]*model.ContactGroup, error) {
	filter := store.Filter{}
	if !role.IsAdmin() {
		filter["createdBy"] = userID
	}
	return s.groups.Find(ctx, store.Query{
		Filter: filter,
		Sort:   &store.Sort{Field: "createdAt", Desc: true},
	})
}

// Create stores a group after trimming and dropping blank contact entries.
// The resulting contact list must be non-empty.
func (s *ContactService) Create(ctx context.Context, userID string, req *model.CreateContactGroupRequest) (*model.ContactGroup, error) {
	contacts := make([]string, 0, len(req.Contacts))
	for _, c := range req.Contacts {
		if clean := strings.TrimSpace(c); clean != "" {
			contacts = append(contacts, clean)
		}
	}
	if len(contacts) == 0 {
		return nil, ErrValidation
	}

	groupType := req.Type
	switch groupType {
	case model.GroupSMS, model.GroupEmail, model.GroupMixed:
	default:
		groupType = model.GroupMixed
	}

	return s.groups.Insert(ctx, &model.ContactGroup{
		Name:        req.Name,
		Type:        groupType,
		Contacts:    contacts,
		Description: req.Description,
		CreatedBy:   userID,
	})
}

// Delete removes a group, restricted to the owner unless the caller is an
// admin.
func (s *ContactService) Delete(ctx context.Context, id, userID string, role model.Role) error {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !role.IsAdmin() && group.CreatedBy != userID {
		return ErrNotAllowed
	}
	_, err = s.groups.DeleteByID(ctx, id)
	return err
}
