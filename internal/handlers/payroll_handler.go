package handlers

import (
	"net/http"

	"go-hardware-pos/internal/payroll"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetEmployees(c *gin.Context) {
	list, err := h.Payroll.Employees(c.Request.Context(), scopeOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) AddEmployee(c *gin.Context) {
	var in payroll.EmployeeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	emp, err := h.Payroll.CreateEmployee(c.Request.Context(), scopeOf(c).CurrentBranchID, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Employee added successfully!", "employee": emp})
}

// GetTodayAttendance lists the branch staff with today's mark.
func (h *Handler) GetTodayAttendance(c *gin.Context) {
	page, err := h.Payroll.TodayAttendance(c.Request.Context(), scopeOf(c).CurrentBranchID, listFilter(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type MarkAttendanceRequest struct {
	Present []uint `json:"present"`
}

func (h *Handler) MarkAttendance(c *gin.Context) {
	var req MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	res, err := h.Payroll.MarkAttendance(c.Request.Context(), scopeOf(c).CurrentBranchID, req.Present)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendance saved successfully!", "result": res})
}

// PaySalary pays the employee for the current week.
func (h *Handler) PaySalary(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.Payroll.PaySalary(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Salary paid successfully!", "payroll": p})
}
