package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/noterag/store"
)

func (d *DB) CreateWorkflowInstance(ctx context.Context, create *store.WorkflowInstance) (*store.WorkflowInstance, error) {
	stmt := `INSERT INTO workflow_instance (id, name, params, status) VALUES (` + placeholders(4) + `) RETURNING created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt, create.ID, create.Name, create.Params, create.Status).Scan(&create.CreatedTs, &create.UpdatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to create workflow instance")
	}
	return create, nil
}

func (d *DB) ListWorkflowInstances(ctx context.Context, find *store.FindWorkflowInstance) ([]*store.WorkflowInstance, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if len(find.StatusList) > 0 {
		for _, status := range find.StatusList {
			args = append(args, status)
		}
		where = append(where, "status IN ("+placeholders(len(find.StatusList))+")")
	}

	query := `SELECT id, name, params, status, error, created_ts, updated_ts FROM workflow_instance WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts ASC, id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list workflow instances")
	}
	defer rows.Close()

	list := []*store.WorkflowInstance{}
	for rows.Next() {
		var instance store.WorkflowInstance
		if err := rows.Scan(
			&instance.ID,
			&instance.Name,
			&instance.Params,
			&instance.Status,
			&instance.Error,
			&instance.CreatedTs,
			&instance.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan workflow instance")
		}
		list = append(list, &instance)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpdateWorkflowInstance(ctx context.Context, update *store.UpdateWorkflowInstance) error {
	set, args := []string{}, []any{}
	if v := update.Status; v != nil {
		set, args = append(set, "status = ?"), append(args, *v)
	}
	if v := update.Error; v != nil {
		set, args = append(set, "error = ?"), append(args, *v)
	}
	if v := update.UpdatedTs; v != nil {
		set, args = append(set, "updated_ts = ?"), append(args, *v)
	}
	if len(set) == 0 {
		return errors.New("no fields to update")
	}

	args = append(args, update.ID)
	stmt := `UPDATE workflow_instance SET ` + strings.Join(set, ", ") + ` WHERE id = ?`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update workflow instance")
	}
	return nil
}

func (d *DB) UpsertWorkflowStep(ctx context.Context, upsert *store.WorkflowStep) (*store.WorkflowStep, error) {
	stmt := `
		INSERT INTO workflow_step (instance_id, name, output, attempts)
		VALUES (` + placeholders(4) + `)
		ON CONFLICT (instance_id, name)
		DO UPDATE SET
			output = excluded.output,
			attempts = excluded.attempts
		RETURNING created_ts
	`
	if err := d.db.QueryRowContext(ctx, stmt, upsert.InstanceID, upsert.Name, upsert.Output, upsert.Attempts).Scan(&upsert.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert workflow step")
	}
	return upsert, nil
}

func (d *DB) ListWorkflowSteps(ctx context.Context, find *store.FindWorkflowStep) ([]*store.WorkflowStep, error) {
	where, args := []string{"instance_id = ?"}, []any{find.InstanceID}
	if v := find.Name; v != nil {
		where, args = append(where, "name = ?"), append(args, *v)
	}

	query := `SELECT instance_id, name, output, attempts, created_ts FROM workflow_step WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts ASC, rowid ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list workflow steps")
	}
	defer rows.Close()

	list := []*store.WorkflowStep{}
	for rows.Next() {
		var step store.WorkflowStep
		if err := rows.Scan(&step.InstanceID, &step.Name, &step.Output, &step.Attempts, &step.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan workflow step")
		}
		list = append(list, &step)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
