// Package payroll marks daily attendance and pays weekly salaries from it.
package payroll

import (
	"context"
	"errors"
	"slices"
	"time"

	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/logger"
	"go-hardware-pos/internal/models"
	"go-hardware-pos/internal/utils"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
	log zerolog.Logger
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now, log: logger.WithComponent("payroll")}
}

// WithClock swaps the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type EmployeeInput struct {
	FirstName string          `json:"first_name" validate:"required,max=100"`
	LastName  string          `json:"last_name" validate:"required,max=100"`
	Email     string          `json:"email" validate:"omitempty,email"`
	Position  string          `json:"position" validate:"max=50"`
	DailyRate decimal.Decimal `json:"daily_rate" validate:"gte=0"`
	UserID    *uint           `json:"user_id"`
}

// CreateEmployee hires someone into the branch.
func (s *Service) CreateEmployee(ctx context.Context, branchID uint, in EmployeeInput) (*models.Employee, error) {
	if branchID == 0 {
		return nil, apperr.Validation("No active branch selected.")
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	e := &models.Employee{
		BranchID:  branchID,
		UserID:    in.UserID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Position:  in.Position,
		DailyRate: in.DailyRate,
	}
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, apperr.Persistence("Failed to add employee", err)
	}
	return e, nil
}

// Employees lists the employees the scope may see.
func (s *Service) Employees(ctx context.Context, scope auth.Scope) ([]models.Employee, error) {
	var out []models.Employee
	err := scope.Employees(s.db.WithContext(ctx).Model(&models.Employee{})).
		Order("employees.id").Find(&out).Error
	if err != nil {
		return nil, apperr.Persistence("Failed to fetch employees", err)
	}
	return out, nil
}

// MarkResult counts what a daily mark did.
type MarkResult struct {
	Date    time.Time `json:"date"`
	Present int       `json:"present"`
	Absent  int       `json:"absent"`
	Skipped int       `json:"skipped"` // already paid, left untouched
}

// MarkAttendance records today for every employee of the branch: Present when
// listed in presentIDs, Absent otherwise. Marking twice with the same list
// changes nothing.
func (s *Service) MarkAttendance(ctx context.Context, branchID uint, presentIDs []uint) (*MarkResult, error) {
	if branchID == 0 {
		return nil, apperr.Validation("No active branch selected.")
	}
	today := utils.StartOfDay(s.now())
	res := &MarkResult{Date: today}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var employees []models.Employee
		if err := tx.Where("branch_id = ?", branchID).Order("id").Find(&employees).Error; err != nil {
			return err
		}

		for _, e := range employees {
			status := models.StatusAbsent
			if slices.Contains(presentIDs, e.ID) {
				status = models.StatusPresent
			}

			var att models.Attendance
			if err := tx.Where("employee_id = ? AND att_date = ?", e.ID, today).Limit(1).Find(&att).Error; err != nil {
				return err
			}
			switch {
			case att.ID == 0:
				att = models.Attendance{EmployeeID: e.ID, AttDate: today, Status: status, DailyRate: e.DailyRate}
				if err := tx.Create(&att).Error; err != nil {
					return err
				}
			case att.PayrollID != nil:
				res.Skipped++
				continue
			default:
				if err := tx.Model(&att).Updates(map[string]any{"status": status, "daily_rate": e.DailyRate}).Error; err != nil {
					return err
				}
			}

			if status == models.StatusPresent {
				res.Present++
			} else {
				res.Absent++
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Persistence("Failed to record attendance", err)
	}
	s.log.Info().Uint("branch_id", branchID).Int("present", res.Present).Int("absent", res.Absent).Msg("attendance recorded")
	return res, nil
}

// DayRow is an employee with their attendance for the day, if marked.
type DayRow struct {
	Employee   models.Employee    `json:"employee"`
	Attendance *models.Attendance `json:"attendance"`
}

// TodayAttendance pages through the branch employees with today's record.
func (s *Service) TodayAttendance(ctx context.Context, branchID uint, f utils.ListFilter) (*utils.Page[DayRow], error) {
	q := s.db.WithContext(ctx).Model(&models.Employee{}).Where("branch_id = ?", branchID)
	if f.Search != "" {
		q = q.Where("first_name LIKE ? OR last_name LIKE ?", f.Like(), f.Like())
	}
	employees, err := utils.Paginate[models.Employee](q.Order("id"), f)
	if err != nil {
		return nil, apperr.Persistence("Failed to fetch employees", err)
	}

	ids := make([]uint, 0, len(employees.Items))
	for _, e := range employees.Items {
		ids = append(ids, e.ID)
	}
	var marks []models.Attendance
	if len(ids) > 0 {
		err = s.db.WithContext(ctx).
			Where("employee_id IN ? AND att_date = ?", ids, utils.StartOfDay(s.now())).
			Find(&marks).Error
		if err != nil {
			return nil, apperr.Persistence("Failed to fetch attendance", err)
		}
	}
	byEmployee := make(map[uint]*models.Attendance, len(marks))
	for i := range marks {
		byEmployee[marks[i].EmployeeID] = &marks[i]
	}

	page := &utils.Page[DayRow]{
		Items:      make([]DayRow, 0, len(employees.Items)),
		Page:       employees.Page,
		PerPage:    employees.PerPage,
		Total:      employees.Total,
		TotalPages: employees.TotalPages,
	}
	for _, e := range employees.Items {
		page.Items = append(page.Items, DayRow{Employee: e, Attendance: byEmployee[e.ID]})
	}
	return page, nil
}

// PaySalary pays an employee for the current week: the sum of the daily rate
// over unpaid Present days. Every unpaid attendance row of the week is then
// stamped with the payroll id, so it is kept for history but never paid again.
func (s *Service) PaySalary(ctx context.Context, scope auth.Scope, employeeID uint) (*models.Payroll, error) {
	start, end := utils.WeekBounds(s.now())

	var payroll *models.Payroll
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Employee must be visible
		var e models.Employee
		err := tx.First(&e, employeeID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !scope.CanAccessBranch(e.BranchID)) {
			return apperr.NotFound("Employee not found")
		}
		if err != nil {
			return apperr.Persistence("Failed to load employee", err)
		}

		// 2. Unpaid week
		var rows []models.Attendance
		err = tx.Where("employee_id = ? AND att_date BETWEEN ? AND ? AND payroll_id IS NULL", employeeID, start, end).
			Find(&rows).Error
		if err != nil {
			return apperr.Persistence("Failed to load attendance", err)
		}
		if len(rows) == 0 {
			return apperr.InvalidState("No unpaid attendance for %s this week.", e.FullName())
		}

		gross := decimal.Zero
		ids := make([]uint, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.ID)
			if r.Status == models.StatusPresent {
				gross = gross.Add(r.DailyRate)
			}
		}

		// 3. Payroll
		payroll = &models.Payroll{
			EmployeeID:  employeeID,
			PeriodStart: start,
			PeriodEnd:   end,
			GrossPay:    gross,
			Deductions:  decimal.Zero,
			NetPay:      gross,
			CreatedBy:   scope.UserID,
		}
		if err := tx.Create(payroll).Error; err != nil {
			return apperr.Persistence("Failed to save payroll", err)
		}

		// 4. Consume the rows
		if err := tx.Model(&models.Attendance{}).Where("id IN ?", ids).Update("payroll_id", payroll.ID).Error; err != nil {
			return apperr.Persistence("Failed to close attendance", err)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to pay salary")
	}
	s.log.Info().Uint("employee_id", employeeID).Str("net_pay", payroll.NetPay.StringFixed(2)).Msg("salary paid")
	return payroll, nil
}
