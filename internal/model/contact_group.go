package model

import "healthwatch/internal/store"

type ContactGroupType string

const (
	GroupSMS   ContactGroupType = "sms"
	GroupEmail ContactGroupType = "email"
	GroupMixed ContactGroupType = "mixed"
)

// ContactGroup is a named, reusable list of notification addresses. Owned by
// its creator; admins hold override read/delete rights.
type ContactGroup struct {
	store.Meta
	Name        string           `json:"name"`
	Type        ContactGroupType `json:"type"`
	Contacts    []string         `json:"contacts"`
	Description string           `json:"description,omitempty"`
	CreatedBy   string           `json:"createdBy"`
}

const ContactGroupCollection = "contact_groups"

var ContactGroupRefs = store.RefTable{
	"createdBy": UserCollection,
}

type CreateContactGroupRequest struct {
	Name        string           `json:"name" binding:"required"`
	Type        ContactGroupType `json:"type"`
	Contacts    []string         `json:"contacts" binding:"required,min=1"`
	Description string           `json:"description"`
}
