package pkm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// BulkAction is an operation applied to every bookmark in a batch.
type BulkAction string

const (
	BulkMoveFolder     BulkAction = "move_folder"
	BulkChangeCategory BulkAction = "change_category"
	BulkArchive        BulkAction = "archive"
	BulkUnarchive      BulkAction = "unarchive"
	BulkDelete         BulkAction = "delete"
)

// Parameter names read from the bulk params map.
const (
	ParamFolderID = "folderId"
	ParamCategory = "category"
)

// requiredParam names the argument an action cannot run without.
var requiredParam = map[BulkAction]string{
	BulkMoveFolder:     ParamFolderID,
	BulkChangeCategory: ParamCategory,
	BulkArchive:        "",
	BulkUnarchive:      "",
	BulkDelete:         "",
}

// BulkResult is the outcome for one id, reported in input order.
type BulkResult struct {
	ResourceID string     `json:"resourceId"`
	Success    bool       `json:"success"`
	Error      *BulkError `json:"error,omitempty"`
}

// BulkError describes why a single item failed.
type BulkError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ApplyBulk runs action on each id independently. One item's failure never
// rolls back or blocks another. The request itself fails, before any item
// runs, when the action is unknown (*ValidationError) or its parameter is
// absent (*MissingParameterError).
func (s *Service) ApplyBulk(ctx context.Context, ownerID string, action BulkAction, ids []string, params map[string]string) ([]BulkResult, error) {
	param, known := requiredParam[action]
	if !known {
		return nil, &ValidationError{Violations: []Violation{{Field: "action", Message: fmt.Sprintf("unknown bulk action %q", action)}}}
	}
	var value string
	if param != "" {
		value = strings.TrimSpace(params[param])
		if value == "" && !(action == BulkChangeCategory && hasKey(params, param)) {
			return nil, &MissingParameterError{Action: action, Param: param}
		}
	}
	if action == BulkChangeCategory {
		if err := (&validator{}).categoryErr(value); err != nil {
			return nil, err
		}
	}

	results := make([]BulkResult, len(ids))
	apply := func(i int) {
		id := ids[i]
		results[i] = BulkResult{ResourceID: id, Success: true}
		if err := s.applyOne(ctx, ownerID, action, id, value); err != nil {
			results[i].Success = false
			results[i].Error = &BulkError{Code: ErrorCode(err), Message: err.Error()}
		}
	}

	if s.bulkConcurrency > 1 && len(ids) > 1 {
		// Workers never return an error, so one item cannot cancel the rest.
		var g errgroup.Group
		g.SetLimit(s.bulkConcurrency)
		for i := range ids {
			g.Go(func() error {
				apply(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range ids {
			apply(i)
		}
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	s.logger.Info("bulk action applied", "action", action, "owner_id", ownerID, "items", len(ids), "failed", failed)
	return results, nil
}

func (s *Service) applyOne(ctx context.Context, ownerID string, action BulkAction, id, value string) error {
	now := s.clock.Now()
	switch action {
	case BulkMoveFolder:
		return s.database.MoveToFolder(ctx, ownerID, id, value, now)
	case BulkChangeCategory:
		return s.database.SetCategory(ctx, ownerID, id, value, now)
	case BulkArchive:
		return s.database.SetArchived(ctx, ownerID, id, true, now)
	case BulkUnarchive:
		return s.database.SetArchived(ctx, ownerID, id, false, now)
	case BulkDelete:
		return s.database.SoftDeleteBookmark(ctx, ownerID, id, now)
	}
	return fmt.Errorf("unhandled bulk action %q", action)
}

func hasKey(m map[string]string, key string) bool {
	_, ok := m[key]
	return ok
}

func (v *validator) categoryErr(category string) error {
	v.maxLen("category", category, maxCategoryLen)
	return v.err()
}
