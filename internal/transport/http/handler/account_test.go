package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-account-api/internal/application/account"
	"github.com/go-account-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAccountService struct{ mock.Mock }

func (m *mockAccountService) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountService) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountService) RequestEmailConfirmation(ctx context.Context, email string, now time.Time) (int, error) {
	args := m.Called(ctx, email, now)
	return args.Int(0), args.Error(1)
}
func (m *mockAccountService) ConfirmEmail(ctx context.Context, req account.ValidateCodeRequest, now time.Time) (domain.Outcome, error) {
	args := m.Called(ctx, req, now)
	return args.Get(0).(domain.Outcome), args.Error(1)
}
func (m *mockAccountService) RequestPasswordReset(ctx context.Context, email string, now time.Time) (int, error) {
	args := m.Called(ctx, email, now)
	return args.Int(0), args.Error(1)
}
func (m *mockAccountService) ResetPassword(ctx context.Context, req account.ResetPasswordRequest, now time.Time) (domain.Outcome, error) {
	args := m.Called(ctx, req, now)
	return args.Get(0).(domain.Outcome), args.Error(1)
}

func doJSON(t *testing.T, fn http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func decodeAuthMessage(t *testing.T, rec *httptest.ResponseRecorder) AuthMessage {
	t.Helper()
	var msg AuthMessage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&msg))
	return msg
}

// --- Login ---

func TestLogin_UnknownEmail(t *testing.T) {
	svc := &mockAccountService{}
	svc.On("Authenticate", mock.Anything, "ghost@b.com", "password1").
		Return(nil, domain.ErrNotFound)

	rec := doJSON(t, NewAccountHandler(svc).Login, `{"email":"ghost@b.com","password":"password1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	msg := decodeAuthMessage(t, rec)
	assert.Equal(t, "AC_LN_1", msg.ID)
	assert.Equal(t, "error", msg.Name)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := &mockAccountService{}
	svc.On("Authenticate", mock.Anything, "a@b.com", "wrong").
		Return(nil, domain.ErrUnauthorized)

	rec := doJSON(t, NewAccountHandler(svc).Login, `{"email":"a@b.com","password":"wrong"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	msg := decodeAuthMessage(t, rec)
	assert.Equal(t, "AC_LN_2", msg.ID)
	assert.Equal(t, "error", msg.Name)
	assert.Equal(t, "Password incorrect!", msg.Message)
}

func TestLogin_UnconfirmedEmailSteersToVerification(t *testing.T) {
	svc := &mockAccountService{}
	svc.On("Authenticate", mock.Anything, "a@b.com", "password1").
		Return(&domain.User{UserID: "u1", Email: "a@b.com"}, nil)

	rec := doJSON(t, NewAccountHandler(svc).Login, `{"email":"a@b.com","password":"password1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	msg := decodeAuthMessage(t, rec)
	assert.Equal(t, "AC_LN_2", msg.ID)
	assert.Equal(t, "info", msg.Name)
	assert.Equal(t, "Verify email to login", msg.Message)
}

func TestLogin_ConfirmedEmail(t *testing.T) {
	svc := &mockAccountService{}
	svc.On("Authenticate", mock.Anything, "a@b.com", "password1").
		Return(&domain.User{UserID: "u1", Email: "a@b.com", EmailConfirmed: true}, nil)

	rec := doJSON(t, NewAccountHandler(svc).Login, `{"email":"a@b.com","password":"password1"}`)

	msg := decodeAuthMessage(t, rec)
	assert.Equal(t, "AC_LN_3", msg.ID)
	assert.Equal(t, "success", msg.Name)
}

func TestLogin_MissingPassword(t *testing.T) {
	svc := &mockAccountService{}
	rec := doJSON(t, NewAccountHandler(svc).Login, `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	svc.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
}

// --- SendEmailVerificationCode ---

func TestSendEmailVerificationCode_ReturnsCodeID(t *testing.T) {
	svc := &mockAccountService{}
	svc.On("RequestEmailConfirmation", mock.Anything, "a@b.com", mock.AnythingOfType("time.Time")).
		Return(387, nil)

	rec := doJSON(t, NewAccountHandler(svc).SendEmailVerificationCode, `{"email":"a@b.com"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var env CodeEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, 387, env.CodeID)
}

func TestSendEmailVerificationCode_MalformedBody(t *testing.T) {
	svc := &mockAccountService{}
	rec := doJSON(t, NewAccountHandler(svc).SendEmailVerificationCode, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "RequestEmailConfirmation", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendEmailVerificationCode_InvalidEmail(t *testing.T) {
	svc := &mockAccountService{}
	rec := doJSON(t, NewAccountHandler(svc).SendEmailVerificationCode, `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSendEmailVerificationCode_AlreadyConfirmed(t *testing.T) {
	svc := &mockAccountService{}
	svc.On("RequestEmailConfirmation", mock.Anything, "a@b.com", mock.AnythingOfType("time.Time")).
		Return(0, domain.ErrConflict)

	rec := doJSON(t, NewAccountHandler(svc).SendEmailVerificationCode, `{"email":"a@b.com"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSendEmailVerificationCode_DeliveryFailure(t *testing.T) {
	svc := &mockAccountService{}
	svc.On("RequestEmailConfirmation", mock.Anything, "a@b.com", mock.AnythingOfType("time.Time")).
		Return(0, &domain.DeliveryError{Err: assert.AnError})

	rec := doJSON(t, NewAccountHandler(svc).SendEmailVerificationCode, `{"email":"a@b.com"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

// --- VerifyEmail ---

func TestVerifyEmail_Success(t *testing.T) {
	svc := &mockAccountService{}
	svc.On("ConfirmEmail", mock.Anything, account.ValidateCodeRequest{
		CodeID: 42, Code: "123456", Email: "a@b.com",
	}, mock.AnythingOfType("time.Time")).Return(domain.OutcomeSuccess, nil)

	rec := doJSON(t, NewAccountHandler(svc).VerifyEmail,
		`{"code_id":42,"code":"123456","email":"a@b.com"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	msg := decodeAuthMessage(t, rec)
	assert.Equal(t, "AC_VL_1", msg.ID)
	assert.Equal(t, "success", msg.Name)
	assert.Equal(t, "Email successfully verified.", msg.Message)
}

func TestVerifyEmail_HonorsClientCurrentTime(t *testing.T) {
	svc := &mockAccountService{}
	at := time.Date(2024, 3, 22, 18, 0, 0, 0, time.UTC)
	svc.On("ConfirmEmail", mock.Anything, mock.Anything, at).Return(domain.OutcomeSuccess, nil)

	rec := doJSON(t, NewAccountHandler(svc).VerifyEmail,
		`{"code_id":42,"code":"123456","email":"a@b.com","current_time":"2024-03-22T18:00:00Z"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestVerifyEmail_OutcomeResponses(t *testing.T) {
	cases := []struct {
		name    string
		outcome domain.Outcome
		status  int
		message string
	}{
		{"mismatch", domain.OutcomeMismatch, http.StatusBadRequest, "This code is not valid!"},
		{"expired", domain.OutcomeExpired, http.StatusBadRequest, "This code has expired. Generate a new one"},
		{"not found", domain.OutcomeNotFound, http.StatusNotFound, "Code not found. Generate a new one"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockAccountService{}
			svc.On("ConfirmEmail", mock.Anything, mock.Anything, mock.Anything).
				Return(tc.outcome, nil)

			rec := doJSON(t, NewAccountHandler(svc).VerifyEmail,
				`{"code_id":42,"code":"123456","email":"a@b.com"}`)

			assert.Equal(t, tc.status, rec.Code)
			msg := decodeAuthMessage(t, rec)
			assert.Equal(t, "AC_VL_2", msg.ID)
			assert.Equal(t, tc.message, msg.Message)
		})
	}
}

func TestVerifyEmail_MissingCode(t *testing.T) {
	svc := &mockAccountService{}
	rec := doJSON(t, NewAccountHandler(svc).VerifyEmail, `{"code_id":42,"email":"a@b.com"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	svc.AssertNotCalled(t, "ConfirmEmail", mock.Anything, mock.Anything, mock.Anything)
}

// --- ResetPassword ---

func TestResetPassword_Success(t *testing.T) {
	svc := &mockAccountService{}
	svc.On("ResetPassword", mock.Anything, account.ResetPasswordRequest{
		CodeID: 42, Code: "123456", Email: "a@b.com", NewPassword: "brandnew99",
	}, mock.AnythingOfType("time.Time")).Return(domain.OutcomeSuccess, nil)

	rec := doJSON(t, NewAccountHandler(svc).ResetPassword,
		`{"code_id":42,"code":"123456","email":"a@b.com","new_password":"brandnew99"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	msg := decodeAuthMessage(t, rec)
	assert.Equal(t, "AC_RD_2", msg.ID)
	assert.Equal(t, "Password has been successfully reset.", msg.Message)
}

func TestResetPassword_PolicyRejection(t *testing.T) {
	svc := &mockAccountService{}
	svc.On("ResetPassword", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.OutcomeSuccess, &domain.CredentialPolicyError{
			Reasons: []string{"must be at least 8 characters", "must contain a digit"},
		})

	rec := doJSON(t, NewAccountHandler(svc).ResetPassword,
		`{"code_id":42,"code":"123456","email":"a@b.com","new_password":"weak"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	msg := decodeAuthMessage(t, rec)
	assert.Equal(t, "AC_PW", msg.ID)
	assert.Len(t, msg.Reasons, 2)
}

func TestResetPassword_ExpiredCode(t *testing.T) {
	svc := &mockAccountService{}
	svc.On("ResetPassword", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.OutcomeExpired, nil)

	rec := doJSON(t, NewAccountHandler(svc).ResetPassword,
		`{"code_id":42,"code":"123456","email":"a@b.com","new_password":"brandnew99"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	msg := decodeAuthMessage(t, rec)
	assert.Equal(t, "AC_RD_1", msg.ID)
}
