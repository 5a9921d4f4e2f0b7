package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/yettensyvus/InternshipFinder/internal/domain"
)

func TestSetEnabled(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("SetEnabled", mock.Anything, "u7", false).Return(nil)
	svc.On("SetEnabled", mock.Anything, "ghost", true).Return(domain.ErrNotFound)
	h := NewUserHandler(svc)

	rr := httptest.NewRecorder()
	h.SetEnabled(rr, withChiID(jsonReq(http.MethodPatch, "/v1/admin/users/u7/enabled", `{"enabled":false}`), "u7"))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	h.SetEnabled(rr, withChiID(jsonReq(http.MethodPatch, "/v1/admin/users/ghost/enabled", `{"enabled":true}`), "ghost"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	svc.AssertExpectations(t)
}

func TestSetEnabled_MissingFlag(t *testing.T) {
	svc := &mockUserSvc{}
	rr := httptest.NewRecorder()
	NewUserHandler(svc).SetEnabled(rr, withChiID(jsonReq(http.MethodPatch, "/v1/admin/users/u7/enabled", `{}`), "u7"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "SetEnabled", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteUser(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Delete", mock.Anything, "u7").Return(nil)

	rr := httptest.NewRecorder()
	NewUserHandler(svc).Delete(rr, withChiID(httptest.NewRequest(http.MethodDelete, "/v1/admin/users/u7", nil), "u7"))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	svc.AssertExpectations(t)
}
