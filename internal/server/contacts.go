package server

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/orders-tracker/internal/contacts"
	"github.com/joseph-ayodele/orders-tracker/internal/utils"
)

// ListContacts lists the directory by priority.
func (s *OrderServer) ListContacts(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	list, err := s.contacts.ListContacts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, len(list))
	for _, c := range list {
		out = append(out, utils.ContactMap(c))
	}
	return newStruct(map[string]any{"contacts": out})
}

// CreateContact adds a directory entry.
func (s *OrderServer) CreateContact(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	priority, err := integer(req, "priority")
	if err != nil {
		return nil, err
	}

	c, err := s.contacts.CreateContact(ctx, contacts.CreateContactRequest{
		Name:     str(req, "name"),
		Phone:    str(req, "phone"),
		Note:     str(req, "note"),
		Priority: priority,
	})
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"contact": utils.ContactMap(c)})
}
