package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridianhq/meridian/internal/authz"
	"github.com/meridianhq/meridian/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// StartThread opens a conversation with its first message in one
// transaction, so a thread never exists empty.
func (s *Service) StartThread(ctx context.Context, actor authz.Context, req CreateThreadRequest) (*Thread, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	thread := Thread{
		TenantID:  actor.TenantID,
		ClientID:  req.ClientID,
		Subject:   strings.TrimSpace(req.Subject),
		CreatedBy: actor.UserID,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.CreateThread(ctx, thread)
		if err != nil {
			return err
		}
		thread.ID = id
		if _, err := repo.InsertMessage(ctx, Message{ThreadID: id, SenderID: actor.UserID, Body: req.Body}); err != nil {
			return err
		}
		return repo.MarkRead(ctx, id, actor.UserID)
	})
	if err != nil {
		return nil, fmt.Errorf("start thread: %w", err)
	}
	return &thread, nil
}

func (s *Service) Post(ctx context.Context, actor authz.Context, threadID int64, req PostMessageRequest) (*Message, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	thread, err := s.repo.GetThread(ctx, actor.TenantID, threadID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireTenant(actor.TenantID, thread.TenantID); err != nil {
		return nil, err
	}

	msg := Message{ThreadID: threadID, SenderID: actor.UserID, Body: req.Body}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.InsertMessage(ctx, msg)
		if err != nil {
			return err
		}
		msg.ID = id
		return repo.MarkRead(ctx, threadID, actor.UserID)
	})
	if err != nil {
		return nil, fmt.Errorf("post message: %w", err)
	}
	return &msg, nil
}

// Read returns the thread with its messages and advances the viewer's
// read mark.
func (s *Service) Read(ctx context.Context, actor authz.Context, threadID int64) (*Thread, []Message, error) {
	thread, err := s.repo.GetThread(ctx, actor.TenantID, threadID)
	if err != nil {
		return nil, nil, err
	}
	if err := authz.RequireTenant(actor.TenantID, thread.TenantID); err != nil {
		return nil, nil, err
	}

	msgs, err := s.repo.Messages(ctx, threadID)
	if err != nil {
		return nil, nil, fmt.Errorf("load messages: %w", err)
	}
	if err := s.repo.MarkRead(ctx, threadID, actor.UserID); err != nil {
		return nil, nil, fmt.Errorf("mark read: %w", err)
	}
	return thread, msgs, nil
}

func (s *Service) ListThreads(ctx context.Context, actor authz.Context, req ListThreadsRequest) ([]Thread, int, error) {
	req.TenantID = actor.TenantID
	if req.Limit <= 0 {
		req.Limit = 50
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, 0, err
	}
	return s.repo.ListThreads(ctx, req, actor.UserID)
}

// UnreadTotal feeds the dashboard badge.
func (s *Service) UnreadTotal(ctx context.Context, actor authz.Context) (int, error) {
	return s.repo.UnreadTotal(ctx, actor.TenantID, actor.UserID)
}
