package storage

import (
	"context"
	"errors"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/db"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("already exists")
	ErrUnknownParent   = errors.New("department does not exist")
	ErrStillReferenced = errors.New("department still has doctors")
)

type Department struct {
	ID   int64
	Name string
}

type Doctor struct {
	ID             int64
	Name           string
	Specialization string
	Qualification  string
	DepartmentID   int64
	DepartmentName string
	Image          string
	UpdatedAt      time.Time
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM departments ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Department{}
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repository) CreateDepartment(ctx context.Context, d Department) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO departments (id, name) VALUES ($1, $2)`, d.ID, d.Name)
	if db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *Repository) DeleteDepartment(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrStillReferenced
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const doctorSelect = `
	SELECT d.id, d.name, d.specialization, d.qualification, d.department_id, dep.name, d.image, d.updated_at
	FROM doctors d
	JOIN departments dep ON dep.id = d.department_id`

// ListDoctors returns doctors ordered by department then name. departmentID 0 means all.
func (r *Repository) ListDoctors(ctx context.Context, departmentID int64) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, doctorSelect+`
		WHERE $1 = 0 OR d.department_id = $1
		ORDER BY dep.name ASC, d.name ASC
	`, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Doctor{}
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialization, &d.Qualification, &d.DepartmentID, &d.DepartmentName, &d.Image, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repository) GetDoctor(ctx context.Context, id int64) (Doctor, error) {
	var d Doctor
	err := r.pool.QueryRow(ctx, doctorSelect+` WHERE d.id = $1`, id).
		Scan(&d.ID, &d.Name, &d.Specialization, &d.Qualification, &d.DepartmentID, &d.DepartmentName, &d.Image, &d.UpdatedAt)
	if db.IsNotFound(err) {
		return Doctor{}, ErrNotFound
	}
	return d, err
}

func (r *Repository) UpsertDoctor(ctx context.Context, d Doctor) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (id, name, specialization, qualification, department_id, image)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			specialization = EXCLUDED.specialization,
			qualification = EXCLUDED.qualification,
			department_id = EXCLUDED.department_id,
			image = EXCLUDED.image,
			updated_at = now()
	`, d.ID, d.Name, d.Specialization, d.Qualification, d.DepartmentID, d.Image)
	if db.IsForeignKeyViolation(err) {
		return ErrUnknownParent
	}
	return err
}

func (r *Repository) DeleteDoctor(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
