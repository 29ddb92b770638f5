package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"github.com/ukydev/fleetsheet/internal/delivery"
	"github.com/ukydev/fleetsheet/internal/middleware"
	"github.com/ukydev/fleetsheet/internal/models"
	"github.com/ukydev/fleetsheet/internal/report"
	"github.com/ukydev/fleetsheet/internal/review"
	"github.com/ukydev/fleetsheet/internal/timesheet"
)

var (
	employer = models.Claims{UserID: "u1", Username: "owner", Role: models.RoleEmployer, TenantID: "t1"}
	employee = models.Claims{UserID: "u2", Username: "ana", Role: models.RoleEmployee, TenantID: "t1", EmployeeID: "e1"}
)

// serveRoute mounts h on pattern and sends one request, authenticated as
// claims when non-nil.
func serveRoute(method, pattern, target, body string, claims *models.Claims, h http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if claims != nil {
		c := *claims
		req = req.WithContext(middleware.WithClaims(req.Context(), &c))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockVehicleCollection is a mock implementation of VehicleCollection
type MockVehicleCollection struct {
	mock.Mock
}

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	return m.Called(ctx, vehicle).Error(0)
}

func (m *MockVehicleCollection) FindVehicles(ctx context.Context, tenantID string) ([]models.Vehicle, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	return m.Called(ctx, id, vehicle).Error(0)
}

func (m *MockVehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockReviewCounter is a mock implementation of ReviewCounter
type MockReviewCounter struct {
	mock.Mock
}

func (m *MockReviewCounter) CountReviews(ctx context.Context, tenantID, vehicleID string) (int64, error) {
	args := m.Called(ctx, tenantID, vehicleID)
	return args.Get(0).(int64), args.Error(1)
}

// MockEmployeeCollection is a mock implementation of EmployeeCollection
type MockEmployeeCollection struct {
	mock.Mock
}

func (m *MockEmployeeCollection) InsertEmployee(ctx context.Context, employee models.Employee) error {
	return m.Called(ctx, employee).Error(0)
}

func (m *MockEmployeeCollection) FindEmployees(ctx context.Context, tenantID string) ([]models.Employee, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]models.Employee), args.Error(1)
}

func (m *MockEmployeeCollection) FindEmployeeByID(ctx context.Context, id string) (*models.Employee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Employee), args.Error(1)
}

func (m *MockEmployeeCollection) UpdateEmployee(ctx context.Context, id string, employee models.Employee) error {
	return m.Called(ctx, id, employee).Error(0)
}

// MockClientCollection is a mock implementation of ClientCollection
type MockClientCollection struct {
	mock.Mock
}

func (m *MockClientCollection) InsertClient(ctx context.Context, client models.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *MockClientCollection) FindClients(ctx context.Context, tenantID string) ([]models.Client, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]models.Client), args.Error(1)
}

func (m *MockClientCollection) FindClientByID(ctx context.Context, id string) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

// MockProjectCollection is a mock implementation of ProjectCollection
type MockProjectCollection struct {
	mock.Mock
}

func (m *MockProjectCollection) InsertProject(ctx context.Context, project models.Project) error {
	return m.Called(ctx, project).Error(0)
}

func (m *MockProjectCollection) FindProjects(ctx context.Context, tenantID, clientID string) ([]models.Project, error) {
	args := m.Called(ctx, tenantID, clientID)
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *MockProjectCollection) FindProjectByID(ctx context.Context, id string) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

// MockTimesheetService is a mock implementation of TimesheetService
type MockTimesheetService struct {
	mock.Mock
}

func (m *MockTimesheetService) Create(ctx context.Context, caller models.Claims, in timesheet.Input) (*models.TimesheetEntry, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimesheetEntry), args.Error(1)
}

func (m *MockTimesheetService) Update(ctx context.Context, caller models.Claims, id string, in timesheet.Input) (*models.TimesheetEntry, error) {
	args := m.Called(ctx, caller, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimesheetEntry), args.Error(1)
}

func (m *MockTimesheetService) Delete(ctx context.Context, caller models.Claims, id string) error {
	return m.Called(ctx, caller, id).Error(0)
}

func (m *MockTimesheetService) Get(ctx context.Context, caller models.Claims, id string) (*models.TimesheetEntry, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimesheetEntry), args.Error(1)
}

func (m *MockTimesheetService) List(ctx context.Context, caller models.Claims, filter models.TimesheetFilter) ([]models.TimesheetEntry, error) {
	args := m.Called(ctx, caller, filter)
	return args.Get(0).([]models.TimesheetEntry), args.Error(1)
}

// MockReviewService is a mock implementation of ReviewService
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Create(ctx context.Context, caller models.Claims, in review.Input) (*models.VehicleReview, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VehicleReview), args.Error(1)
}

func (m *MockReviewService) Update(ctx context.Context, caller models.Claims, id string, in review.Input) (*models.VehicleReview, error) {
	args := m.Called(ctx, caller, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VehicleReview), args.Error(1)
}

func (m *MockReviewService) Delete(ctx context.Context, caller models.Claims, id string) error {
	return m.Called(ctx, caller, id).Error(0)
}

func (m *MockReviewService) Get(ctx context.Context, caller models.Claims, id string) (*models.VehicleReview, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VehicleReview), args.Error(1)
}

func (m *MockReviewService) ListForVehicle(ctx context.Context, caller models.Claims, vehicleID, from, to string) ([]models.VehicleReview, error) {
	args := m.Called(ctx, caller, vehicleID, from, to)
	return args.Get(0).([]models.VehicleReview), args.Error(1)
}

// MockReportDelivery is a mock implementation of ReportDelivery
type MockReportDelivery struct {
	mock.Mock
}

func (m *MockReportDelivery) Download(ctx context.Context, caller models.Claims, req report.Request) (*delivery.Artifact, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delivery.Artifact), args.Error(1)
}

func (m *MockReportDelivery) Email(ctx context.Context, caller models.Claims, req report.Request, recipient string) (*delivery.Artifact, error) {
	args := m.Called(ctx, caller, req, recipient)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delivery.Artifact), args.Error(1)
}
