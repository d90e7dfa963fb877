package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"nonprofit-backend/internal/auth"
	"nonprofit-backend/internal/middleware"
	"nonprofit-backend/internal/model"
	"nonprofit-backend/internal/service"
)

var testDBSeq atomic.Int64

// 테스트용 인메모리 DB (운영과 동일하게 FK 제약을 켠 상태로 검증)
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:handler_test_%d?mode=memory&cache=shared&_foreign_keys=on", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.User{},
		&model.Organization{},
		&model.Role{},
		&model.RolePermission{},
		&model.OrgMember{},
		&model.Meeting{},
		&model.AgendaItem{},
		&model.Minutes{},
		&model.Task{},
		&model.TaskComment{},
		&model.Document{},
		&model.DocumentShare{},
		&model.ShareAccessLog{},
		&model.Notification{},
		&model.BackgroundCheck{},
		&model.ResearchRecord{},
		&model.Feedback{},
	)
	require.NoError(t, err)

	return db
}

// 테스트 앱 구성 (인증 미들웨어는 고정 클레임 주입으로 대체)
func newTestApp(db *gorm.DB, user *model.User) *fiber.App {
	app := fiber.New()

	app.Use(func(c *fiber.Ctx) error {
		c.Locals("claims", &auth.Claims{
			UserID:   user.ID,
			Email:    user.Email,
			Nickname: user.Nickname,
		})
		c.Locals("userID", user.ID)
		return c.Next()
	})

	orgMW := middleware.NewOrgMiddleware(service.NewMemberService(db))
	requireMember := orgMW.RequireMembership()

	meetingHandler := NewMeetingHandler(db)
	agendaHandler := NewAgendaHandler(db)
	minutesHandler := NewMinutesHandler(db)
	taskHandler := NewTaskHandler(db)

	orgGroup := app.Group("/api/orgs")
	orgGroup.Get("/:orgId/meetings", requireMember, meetingHandler.GetMeetings)
	orgGroup.Post("/:orgId/meetings", requireMember, meetingHandler.CreateMeeting)
	orgGroup.Get("/:orgId/meetings/:meetingId", requireMember, meetingHandler.GetMeeting)
	orgGroup.Put("/:orgId/meetings/:meetingId", requireMember, meetingHandler.UpdateMeeting)
	orgGroup.Post("/:orgId/meetings/archive", requireMember, meetingHandler.ArchiveMeetings)
	orgGroup.Post("/:orgId/meetings/delete", requireMember, meetingHandler.DeleteMeetings)

	orgGroup.Get("/:orgId/meetings/:meetingId/agenda", requireMember, agendaHandler.GetAgendaItems)
	orgGroup.Post("/:orgId/meetings/:meetingId/agenda", requireMember, agendaHandler.CreateAgendaItem)
	orgGroup.Put("/:orgId/meetings/:meetingId/agenda/reorder", requireMember, agendaHandler.ReorderAgenda)
	orgGroup.Put("/:orgId/meetings/:meetingId/agenda/:itemId", requireMember, agendaHandler.UpdateAgendaItem)
	orgGroup.Delete("/:orgId/meetings/:meetingId/agenda/:itemId", requireMember, agendaHandler.DeleteAgendaItem)

	orgGroup.Get("/:orgId/meetings/:meetingId/minutes", requireMember, minutesHandler.GetMinutes)
	orgGroup.Put("/:orgId/meetings/:meetingId/minutes", requireMember, minutesHandler.SaveMinutes)
	orgGroup.Put("/:orgId/meetings/:meetingId/minutes/autosave", requireMember, minutesHandler.AutoSaveMinutes)
	orgGroup.Post("/:orgId/meetings/:meetingId/minutes/approve", requireMember, minutesHandler.ApproveMinutes)

	orgGroup.Get("/:orgId/tasks", requireMember, taskHandler.GetTasks)
	orgGroup.Post("/:orgId/tasks", requireMember, taskHandler.CreateTask)
	orgGroup.Put("/:orgId/tasks/:taskId", requireMember, taskHandler.UpdateTask)
	orgGroup.Post("/:orgId/tasks/:taskId/comments", requireMember, taskHandler.CreateComment)

	return app
}

// 소유자 + 단체 생성 (소유자는 모든 권한 보유)
func createOwnerAndOrg(t *testing.T, db *gorm.DB) (*model.User, *model.Organization) {
	t.Helper()

	user := &model.User{Email: "owner@example.com", Nickname: "owner"}
	require.NoError(t, db.Create(user).Error)

	org := &model.Organization{Name: "Test Org", OwnerID: user.ID}
	require.NoError(t, db.Create(org).Error)

	member := &model.OrgMember{OrgID: org.ID, UserID: user.ID, Status: model.MemberStatusActive.String()}
	require.NoError(t, db.Create(member).Error)

	return user, org
}

func createTestMeeting(t *testing.T, db *gorm.DB, org *model.Organization, creator *model.User) *model.Meeting {
	t.Helper()

	meeting := &model.Meeting{
		OrgID:       org.ID,
		CreatorID:   creator.ID,
		Title:       "Board Meeting",
		Type:        model.MeetingTypeBoard.String(),
		Status:      model.MeetingStatusScheduled.String(),
		ScheduledAt: time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, db.Create(meeting).Error)
	return meeting
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// 응답 envelope 파싱
func decodeEnvelope(t *testing.T, resp *http.Response) (bool, map[string]interface{}) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	var data map[string]interface{}
	if len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, &data))
	}
	return envelope.Success, data
}

func orgPath(orgID int64, suffix string) string {
	return fmt.Sprintf("/api/orgs/%d%s", orgID, suffix)
}
