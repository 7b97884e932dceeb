package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/societypro/admin-service/internal/db"
	"github.com/societypro/admin-service/internal/models"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret")
	os.Exit(m.Run())
}

// stubStore is an in-memory Store. Every mutating call is appended to calls
// so tests can assert on ordering and side effects.
type stubStore struct {
	identities map[string]*models.Identity
	passwords  map[string]string
	profiles   map[string]*models.Profile
	societies  map[string]*models.Society
	residents  map[string]*models.ResidentRequest
	watchmen   map[string]*models.WatchmanRequest

	calls []string
	seq   int

	healthErr         error
	createIdentityErr error
	deleteIdentityErr error
	upsertProfileErr  error
	deleteProfileErr  error
	profilesListErr   error
	markApprovedErr   error
	deleteRequestErr  error

	rateLimited bool
	rateErr     error
}

func newStubStore() *stubStore {
	return &stubStore{
		identities: make(map[string]*models.Identity),
		passwords:  make(map[string]string),
		profiles:   make(map[string]*models.Profile),
		societies:  make(map[string]*models.Society),
		residents:  make(map[string]*models.ResidentRequest),
		watchmen:   make(map[string]*models.WatchmanRequest),
	}
}

func (s *stubStore) record(call string) { s.calls = append(s.calls, call) }

func (s *stubStore) callIndex(prefix string) int {
	for i, call := range s.calls {
		if strings.HasPrefix(call, prefix) {
			return i
		}
	}
	return -1
}

func (s *stubStore) Health(ctx context.Context) error { return s.healthErr }

func (s *stubStore) CreateIdentity(ctx context.Context, email, password string, emailConfirmed bool) (*models.Identity, error) {
	s.record("CreateIdentity:" + email)
	if s.createIdentityErr != nil {
		return nil, s.createIdentityErr
	}
	for _, identity := range s.identities {
		if identity.Email == email {
			return nil, db.ErrDuplicateEmail
		}
	}
	s.seq++
	identity := &models.Identity{
		ID:             fmt.Sprintf("user-%d", s.seq),
		Email:          email,
		EmailConfirmed: emailConfirmed,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	s.identities[identity.ID] = identity
	s.passwords[email] = password
	return identity, nil
}

func (s *stubStore) GetIdentityByEmail(ctx context.Context, email string) (*models.Identity, string, error) {
	for _, identity := range s.identities {
		if identity.Email == email {
			return identity, s.passwords[email], nil
		}
	}
	return nil, "", db.ErrIdentityNotFound
}

func (s *stubStore) DeleteIdentity(ctx context.Context, id string) error {
	s.record("DeleteIdentity:" + id)
	if s.deleteIdentityErr != nil {
		return s.deleteIdentityErr
	}
	if _, ok := s.identities[id]; !ok {
		return db.ErrIdentityNotFound
	}
	delete(s.identities, id)
	return nil
}

func (s *stubStore) ValidatePassword(hashedPassword, password string) error {
	if hashedPassword != password {
		return errors.New("password mismatch")
	}
	return nil
}

func (s *stubStore) UpsertProfile(ctx context.Context, profile models.Profile) error {
	s.record("UpsertProfile:" + profile.ID)
	if s.upsertProfileErr != nil {
		return s.upsertProfileErr
	}
	copied := profile
	s.profiles[profile.ID] = &copied
	return nil
}

func (s *stubStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	profile, ok := s.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return profile, nil
}

func (s *stubStore) GetProfilesBySociety(ctx context.Context, societyID string) ([]models.Profile, error) {
	if s.profilesListErr != nil {
		return nil, s.profilesListErr
	}
	var out []models.Profile
	for _, profile := range s.profiles {
		if profile.SocietyID != nil && *profile.SocietyID == societyID {
			out = append(out, *profile)
		}
	}
	return out, nil
}

func (s *stubStore) DeleteProfile(ctx context.Context, id string) error {
	s.record("DeleteProfile:" + id)
	if s.deleteProfileErr != nil {
		return s.deleteProfileErr
	}
	delete(s.profiles, id)
	return nil
}

func (s *stubStore) CreateSociety(ctx context.Context, req models.RegisterSocietyRequest) (*models.Society, error) {
	s.record("CreateSociety:" + req.Name)
	s.seq++
	society := &models.Society{
		ID:            fmt.Sprintf("soc-%d", s.seq),
		Name:          req.Name,
		Address:       req.Address,
		ContactNumber: req.ContactNumber,
		AdminName:     req.AdminName,
		AdminEmail:    req.AdminEmail,
		Status:        models.SocietyPending,
		CreatedAt:     time.Now(),
	}
	s.societies[society.ID] = society
	return society, nil
}

func (s *stubStore) GetSociety(ctx context.Context, id string) (*models.Society, error) {
	society, ok := s.societies[id]
	if !ok {
		return nil, db.ErrSocietyNotFound
	}
	return society, nil
}

func (s *stubStore) ListSocieties(ctx context.Context, status models.SocietyStatus) ([]models.Society, error) {
	var out []models.Society
	for _, society := range s.societies {
		if status == "" || society.Status == status {
			out = append(out, *society)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateSocietyStatus(ctx context.Context, id string, status models.SocietyStatus) error {
	s.record("UpdateSocietyStatus:" + id + ":" + string(status))
	society, ok := s.societies[id]
	if !ok {
		return db.ErrSocietyNotFound
	}
	society.Status = status
	return nil
}

func (s *stubStore) DeleteSociety(ctx context.Context, id string) error {
	s.record("DeleteSociety:" + id)
	if _, ok := s.societies[id]; !ok {
		return db.ErrSocietyNotFound
	}
	delete(s.societies, id)
	return nil
}

func (s *stubStore) CreateResidentRequest(ctx context.Context, req models.RegisterResidentRequest) (*models.ResidentRequest, error) {
	s.record("CreateResidentRequest:" + req.Email)
	s.seq++
	request := &models.ResidentRequest{
		ID:            fmt.Sprintf("req-%d", s.seq),
		FullName:      req.FullName,
		Email:         req.Email,
		PhoneNumber:   req.PhoneNumber,
		SocietyID:     req.SocietyID,
		FlatNumber:    req.FlatNumber,
		OwnershipType: req.OwnershipType,
		Status:        models.RequestPending,
		CreatedAt:     time.Now(),
	}
	s.residents[request.ID] = request
	return request, nil
}

func (s *stubStore) GetResidentRequest(ctx context.Context, id string) (*models.ResidentRequest, error) {
	request, ok := s.residents[id]
	if !ok {
		return nil, db.ErrRequestNotFound
	}
	return request, nil
}

func (s *stubStore) ListResidentRequests(ctx context.Context, societyID string, status models.RequestStatus) ([]models.ResidentRequest, error) {
	var out []models.ResidentRequest
	for _, request := range s.residents {
		if request.SocietyID == societyID && (status == "" || request.Status == status) {
			out = append(out, *request)
		}
	}
	return out, nil
}

func (s *stubStore) MarkResidentRequestApproved(ctx context.Context, id string) error {
	s.record("MarkResidentRequestApproved:" + id)
	if s.markApprovedErr != nil {
		return s.markApprovedErr
	}
	request, ok := s.residents[id]
	if !ok {
		return db.ErrRequestNotFound
	}
	request.Status = models.RequestApproved
	return nil
}

func (s *stubStore) DeleteResidentRequestByEmail(ctx context.Context, email string) error {
	s.record("DeleteResidentRequestByEmail:" + email)
	if s.deleteRequestErr != nil {
		return s.deleteRequestErr
	}
	for id, request := range s.residents {
		if request.Email == email {
			delete(s.residents, id)
		}
	}
	return nil
}

func (s *stubStore) CreateWatchmanRequest(ctx context.Context, req models.RegisterWatchmanRequest) (*models.WatchmanRequest, error) {
	s.record("CreateWatchmanRequest:" + req.Email)
	s.seq++
	request := &models.WatchmanRequest{
		ID:          fmt.Sprintf("req-%d", s.seq),
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		SocietyID:   req.SocietyID,
		Shift:       req.Shift,
		Status:      models.RequestPending,
		CreatedAt:   time.Now(),
	}
	s.watchmen[request.ID] = request
	return request, nil
}

func (s *stubStore) GetWatchmanRequest(ctx context.Context, id string) (*models.WatchmanRequest, error) {
	request, ok := s.watchmen[id]
	if !ok {
		return nil, db.ErrRequestNotFound
	}
	return request, nil
}

func (s *stubStore) ListWatchmanRequests(ctx context.Context, societyID string, status models.RequestStatus) ([]models.WatchmanRequest, error) {
	var out []models.WatchmanRequest
	for _, request := range s.watchmen {
		if request.SocietyID == societyID && (status == "" || request.Status == status) {
			out = append(out, *request)
		}
	}
	return out, nil
}

func (s *stubStore) MarkWatchmanRequestApproved(ctx context.Context, id string) error {
	s.record("MarkWatchmanRequestApproved:" + id)
	if s.markApprovedErr != nil {
		return s.markApprovedErr
	}
	request, ok := s.watchmen[id]
	if !ok {
		return db.ErrRequestNotFound
	}
	request.Status = models.RequestApproved
	return nil
}

func (s *stubStore) DeleteWatchmanRequestByEmail(ctx context.Context, email string) error {
	s.record("DeleteWatchmanRequestByEmail:" + email)
	if s.deleteRequestErr != nil {
		return s.deleteRequestErr
	}
	for id, request := range s.watchmen {
		if request.Email == email {
			delete(s.watchmen, id)
		}
	}
	return nil
}

func (s *stubStore) CheckRequestRate(ctx context.Context, ipAddress string, maxRequests int, window time.Duration) (bool, error) {
	s.record("CheckRequestRate:" + ipAddress)
	return s.rateLimited, s.rateErr
}

func (s *stubStore) IncrementRequestRate(ctx context.Context, ipAddress string) error {
	s.record("IncrementRequestRate:" + ipAddress)
	return nil
}

func (s *stubStore) CleanupOldRateLimits(ctx context.Context) error {
	s.record("CleanupOldRateLimits")
	return nil
}

type stubEmail struct {
	err  error
	sent []string
}

func (e *stubEmail) SendCredentialEmail(ctx context.Context, to, name, tempPass string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	e.sent = append(e.sent, to)
	return "msg-1", nil
}

type stubSMS struct {
	err  error
	sent []string
}

func (s *stubSMS) SendSMS(ctx context.Context, phoneNumber, message string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, phoneNumber)
	return nil
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode request body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func getPath(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}
