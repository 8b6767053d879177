package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"hostelms/internal/attendance"
	"hostelms/internal/face"
	"hostelms/internal/geo"
	"hostelms/internal/hostel"
)

// NoGPSSentinel is the coordinate value clients without location access send
// to request the documented geofence bypass.
const NoGPSSentinel = "web"

// Verifier runs the check-in pipeline.
type Verifier interface {
	CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.Record, error)
}

// EnrollmentSaver stores a subject's face enrollment.
type EnrollmentSaver interface {
	Save(ctx context.Context, profile face.EnrollmentProfile) error
}

// Handler owns the REST surface for attendance verification.
type Handler struct {
	verifier    Verifier
	ledger      attendance.Ledger
	registry    *hostel.Registry
	enrollments EnrollmentSaver
}

// New wires the handler.
func New(verifier Verifier, ledger attendance.Ledger, registry *hostel.Registry, enrollments EnrollmentSaver) *Handler {
	return &Handler{verifier: verifier, ledger: ledger, registry: registry, enrollments: enrollments}
}

// Register mounts the routes on a router group. adminOnly middleware, when
// given, guards the administrative erasure endpoint.
func (h *Handler) Register(r gin.IRoutes, adminOnly ...gin.HandlerFunc) {
	r.POST("/attendance", h.CheckIn)
	r.GET("/attendance", h.List)
	r.DELETE("/attendance", append(adminOnly, h.Delete)...)
	r.POST("/enroll", h.Enroll)
	r.GET("/hostels", h.Hostels)
}

type checkInRequest struct {
	SubjectID     string `json:"subjectId" binding:"required"`
	Date          string `json:"date" binding:"required"`
	IsPresent     *bool  `json:"isPresent" binding:"required"`
	Photo         string `json:"photo"`
	Latitude      string `json:"latitude"`
	Longitude     string `json:"longitude"`
	ClaimedHostel string `json:"claimedHostel" binding:"required"`
}

// CheckIn handles POST /attendance.
func (h *Handler) CheckIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeRejection(c, &attendance.Rejection{Kind: attendance.KindValidation, Message: err.Error()})
		return
	}

	point, rej := parsePoint(req.Latitude, req.Longitude)
	if rej != nil {
		writeRejection(c, rej)
		return
	}

	photo, rej := parsePhoto(req.Photo)
	if rej != nil {
		writeRejection(c, rej)
		return
	}

	rec, err := h.verifier.CheckIn(c.Request.Context(), attendance.CheckInRequest{
		SubjectID:     req.SubjectID,
		Date:          req.Date,
		IsPresent:     *req.IsPresent,
		Photo:         photo,
		Point:         point,
		ClaimedHostel: req.ClaimedHostel,
	})
	if err != nil {
		var rej *attendance.Rejection
		if errors.As(err, &rej) {
			writeRejection(c, rej)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"kind": "internal", "message": "internal error"}})
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// List handles GET /attendance?subjectId=&limit=.
func (h *Handler) List(c *gin.Context) {
	subjectID := c.Query("subjectId")
	if subjectID == "" {
		writeRejection(c, &attendance.Rejection{Kind: attendance.KindValidation, Message: "subjectId query parameter required"})
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	records, err := h.ledger.ListForSubject(c.Request.Context(), subjectID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"kind": "internal", "message": "internal error"}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// Delete handles DELETE /attendance: administrative erasure for a subject
// and date.
func (h *Handler) Delete(c *gin.Context) {
	var req struct {
		SubjectID string `json:"subjectId" binding:"required"`
		Date      string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeRejection(c, &attendance.Rejection{Kind: attendance.KindValidation, Message: err.Error()})
		return
	}
	if err := h.ledger.DeleteForDate(c.Request.Context(), req.SubjectID, req.Date); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"kind": "internal", "message": "internal error"}})
		return
	}
	c.Status(http.StatusNoContent)
}

// Enroll handles POST /enroll: stores the subject's face embedding.
func (h *Handler) Enroll(c *gin.Context) {
	var req struct {
		SubjectID string    `json:"subjectId" binding:"required"`
		Embedding []float64 `json:"embedding" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeRejection(c, &attendance.Rejection{Kind: attendance.KindValidation, Message: err.Error()})
		return
	}
	if len(req.Embedding) != face.EmbeddingDim {
		writeRejection(c, &attendance.Rejection{
			Kind:    attendance.KindValidation,
			Message: "embedding must have " + strconv.Itoa(face.EmbeddingDim) + " dimensions",
		})
		return
	}
	if err := h.enrollments.Save(c.Request.Context(), face.EnrollmentProfile{
		SubjectID: req.SubjectID,
		Embedding: req.Embedding,
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"kind": "internal", "message": "internal error"}})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subjectId": req.SubjectID, "enrolled": true})
}

// Hostels handles GET /hostels: the boundary config as served to clients,
// so both sides render the same data.
func (h *Handler) Hostels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"hostels": h.registry.Document()})
}

// parsePoint turns the string coordinate pair into a point. The sentinel
// value (or an empty pair) means no GPS and yields a nil point.
func parsePoint(lat, lon string) (*geo.Point, *attendance.Rejection) {
	if lat == NoGPSSentinel || lon == NoGPSSentinel || (lat == "" && lon == "") {
		return nil, nil
	}
	latF, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, &attendance.Rejection{Kind: attendance.KindValidation, Message: "invalid latitude"}
	}
	lonF, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, &attendance.Rejection{Kind: attendance.KindValidation, Message: "invalid longitude"}
	}
	return &geo.Point{Lat: latF, Lon: lonF}, nil
}

// parsePhoto decodes the optional base64 photo, tolerating a data URL prefix.
func parsePhoto(s string) ([]byte, *attendance.Rejection) {
	if s == "" {
		return nil, nil
	}
	if i := strings.IndexByte(s, ','); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &attendance.Rejection{Kind: attendance.KindValidation, Message: "photo is not valid base64"}
	}
	return raw, nil
}

// writeRejection maps the typed rejection onto the wire. Clients branch on
// the kind field, so the payload carries everything needed to render a
// precise message.
func writeRejection(c *gin.Context, rej *attendance.Rejection) {
	status := http.StatusBadRequest
	if rej.Kind == attendance.KindSubjectNotFound {
		status = http.StatusNotFound
	}
	body := gin.H{"kind": rej.Kind, "message": rej.Message}
	if rej.DistanceMeters != nil {
		body["distanceMeters"] = *rej.DistanceMeters
	}
	if rej.Score != nil {
		body["score"] = *rej.Score
	}
	c.JSON(status, gin.H{"error": body})
}
