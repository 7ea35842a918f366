package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"campuskit.app/institution-service/internal/http/handler"
	"campuskit.app/institution-service/internal/model"
	"campuskit.app/institution-service/internal/service"
)

var _ = Describe("InstitutionHandler", func() {
	var (
		router *gin.Engine
		svc    *mockInstitutionService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockInstitutionService{}
		h := handler.NewInstitutionHandler(svc)

		router.POST("/institutions", h.Create)
		router.GET("/institutions", h.List)
		router.GET("/institutions/active", h.ListActive)
		router.GET("/institutions/:id", h.GetByID)
		router.PUT("/institutions/:id", h.Update)
		router.DELETE("/institutions/:id", h.Delete)
		router.POST("/institutions/:id/restore", h.Restore)
		router.POST("/institutions/:id/classrooms", h.AddClassroom)
		router.PUT("/institutions/:id/classrooms/:classroomId", h.UpdateClassroom)
		router.DELETE("/institutions/:id/classrooms/:classroomId", h.RemoveClassroom)
	})

	do := func(method, path string, payload any) *httptest.ResponseRecorder {
		var body *bytes.Buffer
		if payload != nil {
			raw, err := json.Marshal(payload)
			Expect(err).NotTo(HaveOccurred())
			body = bytes.NewBuffer(raw)
		} else {
			body = bytes.NewBuffer(nil)
		}
		req := httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	envelope := func(rec *httptest.ResponseRecorder) map[string]any {
		var out map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed())
		return out
	}

	errorCode := func(rec *httptest.ResponseRecorder) string {
		out := envelope(rec)
		Expect(out["success"]).To(BeFalse())
		errBody, ok := out["error"].(map[string]any)
		Expect(ok).To(BeTrue())
		return errBody["code"].(string)
	}

	Describe("POST /institutions", func() {
		validPayload := map[string]any{
			"name":    "Springfield High",
			"address": "742 Evergreen Terrace",
			"users": []map[string]string{
				{"name": "Ada", "email": "ada@example.edu", "role": "teacher"},
			},
		}

		It("returns 201 with the created institution", func() {
			svc.createFn = func(_ context.Context, params service.CreateInstitutionParams) (*model.Institution, error) {
				Expect(params.Name).To(Equal("Springfield High"))
				Expect(params.Users).To(HaveLen(1))
				return &model.Institution{
					ID:      42,
					Name:    params.Name,
					Address: params.Address,
					Status:  model.StatusActive,
					UserIDs: []string{"u-1"},
				}, nil
			}

			rec := do(http.MethodPost, "/institutions", validPayload)
			Expect(rec.Code).To(Equal(http.StatusCreated))

			out := envelope(rec)
			Expect(out["success"]).To(BeTrue())
			data := out["data"].(map[string]any)
			Expect(data["id"]).To(Equal("42"))
			Expect(data["status"]).To(Equal("active"))
		})

		It("returns 400 for a missing name", func() {
			rec := do(http.MethodPost, "/institutions", map[string]any{"address": "somewhere"})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(rec)).To(Equal("validation_failed"))
		})

		It("returns 400 for a malformed user email", func() {
			rec := do(http.MethodPost, "/institutions", map[string]any{
				"name":  "Springfield High",
				"users": []map[string]string{{"name": "Ada", "email": "not-an-email"}},
			})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(rec)).To(Equal("validation_failed"))
		})

		It("returns 502 when provisioning fails", func() {
			svc.createFn = func(_ context.Context, _ service.CreateInstitutionParams) (*model.Institution, error) {
				return nil, &service.ProvisioningError{InstitutionID: 42, Cause: errors.New("user service down")}
			}

			rec := do(http.MethodPost, "/institutions", validPayload)
			Expect(rec.Code).To(Equal(http.StatusBadGateway))
			Expect(errorCode(rec)).To(Equal("provisioning_failed"))
		})

		It("returns 502 when compensation left orphans", func() {
			svc.createFn = func(_ context.Context, _ service.CreateInstitutionParams) (*model.Institution, error) {
				return nil, &service.CompensationError{
					InstitutionID:   42,
					OrphanedUserIDs: []string{"u-2"},
					ProvisionCause:  errors.New("user service down"),
					Cause:           errors.New("1 of 2 remote user deletions failed"),
				}
			}

			rec := do(http.MethodPost, "/institutions", validPayload)
			Expect(rec.Code).To(Equal(http.StatusBadGateway))
			Expect(errorCode(rec)).To(Equal("compensation_failed"))
		})

		It("returns 500 for storage failures", func() {
			svc.createFn = func(_ context.Context, _ service.CreateInstitutionParams) (*model.Institution, error) {
				return nil, &service.PersistenceError{Op: "create institution", Cause: errors.New("boom")}
			}

			rec := do(http.MethodPost, "/institutions", validPayload)
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(errorCode(rec)).To(Equal("persistence_error"))
		})
	})

	Describe("GET /institutions", func() {
		It("passes pagination through and wraps the list", func() {
			svc.listFn = func(_ context.Context, filter service.StatusFilter, limit, offset int) ([]model.Institution, error) {
				Expect(filter).To(Equal(service.FilterDefault))
				Expect(limit).To(Equal(10))
				Expect(offset).To(Equal(20))
				return []model.Institution{{ID: 1, Status: model.StatusActive}}, nil
			}

			rec := do(http.MethodGet, "/institutions?limit=10&offset=20", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			out := envelope(rec)
			Expect(out["data"].([]any)).To(HaveLen(1))
		})

		It("returns 400 for a non-numeric limit", func() {
			called := false
			svc.listFn = func(_ context.Context, _ service.StatusFilter, _, _ int) ([]model.Institution, error) {
				called = true
				return nil, nil
			}

			rec := do(http.MethodGet, "/institutions?limit=abc", nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(rec)).To(Equal("validation_failed"))
			Expect(called).To(BeFalse())
		})

		It("returns 400 for a non-numeric offset", func() {
			rec := do(http.MethodGet, "/institutions?offset=ten", nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(rec)).To(Equal("validation_failed"))
		})

		It("filters by status on the active listing", func() {
			svc.listFn = func(_ context.Context, filter service.StatusFilter, _, _ int) ([]model.Institution, error) {
				Expect(filter).To(Equal(service.FilterActive))
				return nil, nil
			}

			rec := do(http.MethodGet, "/institutions/active", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("GET /institutions/:id", func() {
		It("returns 404 when missing", func() {
			svc.getByIDFn = func(_ context.Context, _ int64) (*model.Institution, error) {
				return nil, service.ErrInstitutionNotFound
			}

			rec := do(http.MethodGet, "/institutions/42", nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(errorCode(rec)).To(Equal("not_found"))
		})

		It("returns 400 for a non-numeric id", func() {
			rec := do(http.MethodGet, "/institutions/abc", nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(rec)).To(Equal("validation_failed"))
		})

		It("omits soft-deleted classrooms from the response", func() {
			svc.getByIDFn = func(_ context.Context, instID int64) (*model.Institution, error) {
				return &model.Institution{
					ID:     instID,
					Status: model.StatusActive,
					Classrooms: []model.Classroom{
						{ID: 100, InstitutionID: instID, Name: "Physics Lab", Status: model.StatusActive},
						{ID: 101, InstitutionID: instID, Name: "Old Gym", Status: model.StatusDeleted},
					},
				}, nil
			}

			rec := do(http.MethodGet, "/institutions/42", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			data := envelope(rec)["data"].(map[string]any)
			Expect(data["classrooms"].([]any)).To(HaveLen(1))
		})
	})

	Describe("PUT /institutions/:id", func() {
		It("returns 409 for a disallowed status change", func() {
			svc.updateFn = func(_ context.Context, _ int64, _ service.UpdateInstitutionParams) (*model.Institution, error) {
				return nil, service.ErrInvalidTransition
			}

			rec := do(http.MethodPut, "/institutions/42", map[string]any{"status": "inactive"})
			Expect(rec.Code).To(Equal(http.StatusConflict))
			Expect(errorCode(rec)).To(Equal("invalid_transition"))
		})

		It("rejects a status outside active/inactive at the boundary", func() {
			rec := do(http.MethodPut, "/institutions/42", map[string]any{"status": "deleted"})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(rec)).To(Equal("validation_failed"))
		})
	})

	Describe("delete and restore", func() {
		It("soft-deletes and returns an empty envelope", func() {
			deleted := false
			svc.deleteFn = func(_ context.Context, instID int64) error {
				Expect(instID).To(Equal(int64(42)))
				deleted = true
				return nil
			}

			rec := do(http.MethodDelete, "/institutions/42", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(deleted).To(BeTrue())
			Expect(envelope(rec)["success"]).To(BeTrue())
		})

		It("restores to inactive", func() {
			svc.restoreFn = func(_ context.Context, instID int64) (*model.Institution, error) {
				return &model.Institution{ID: instID, Status: model.StatusInactive}, nil
			}

			rec := do(http.MethodPost, "/institutions/42/restore", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			data := envelope(rec)["data"].(map[string]any)
			Expect(data["status"]).To(Equal("inactive"))
		})

		It("returns 409 when restoring a record that was never deleted", func() {
			svc.restoreFn = func(_ context.Context, _ int64) (*model.Institution, error) {
				return nil, service.ErrInvalidTransition
			}

			rec := do(http.MethodPost, "/institutions/42/restore", nil)
			Expect(rec.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("classroom routes", func() {
		It("adds a classroom and returns 201", func() {
			svc.addClassroomFn = func(_ context.Context, instID int64, params service.ClassroomParams) (*model.Classroom, error) {
				return &model.Classroom{
					ID:            100,
					InstitutionID: instID,
					Name:          params.Name,
					Type:          params.Type,
					Status:        model.StatusActive,
				}, nil
			}

			rec := do(http.MethodPost, "/institutions/42/classrooms", map[string]string{
				"name": "Physics Lab",
				"type": "lab",
			})
			Expect(rec.Code).To(Equal(http.StatusCreated))

			data := envelope(rec)["data"].(map[string]any)
			Expect(data["id"]).To(Equal("100"))
			Expect(data["institution_id"]).To(Equal("42"))
		})

		It("returns 404 for an unknown classroom", func() {
			svc.updateClassroomFn = func(_ context.Context, _, _ int64, _ service.ClassroomParams) (*model.Classroom, error) {
				return nil, service.ErrClassroomNotFound
			}

			rec := do(http.MethodPut, "/institutions/42/classrooms/999", map[string]string{"name": "Chemistry Lab"})
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(errorCode(rec)).To(Equal("not_found"))
		})

		It("removes a classroom", func() {
			svc.removeClassroomFn = func(_ context.Context, instID, classroomID int64) error {
				Expect(instID).To(Equal(int64(42)))
				Expect(classroomID).To(Equal(int64(100)))
				return nil
			}

			rec := do(http.MethodDelete, "/institutions/42/classrooms/100", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})
})
