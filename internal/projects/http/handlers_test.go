package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeline-hq/treeline-backend/internal/auth"
	"github.com/treeline-hq/treeline-backend/internal/logger"
	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
	"github.com/treeline-hq/treeline-backend/internal/projects/repository"
	"github.com/treeline-hq/treeline-backend/internal/projects/repository/repositorytest"
	"github.com/treeline-hq/treeline-backend/internal/projects/service"
)

const testOrg = "org-1"

type rig struct {
	router   *gin.Engine
	store    *repositorytest.MemStore
	projects *service.ProjectService
	members  *service.MembershipService
}

// identityAs injects the resolved identity the way the auth middleware
// would, so handler tests skip token plumbing.
func identityAs(userID string, super bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.CtxUserID, userID)
		c.Set(auth.CtxOrgID, testOrg)
		c.Set(auth.CtxSuperAdmin, super)
		c.Next()
	}
}

func newRig(t *testing.T, userID string, super bool) *rig {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repositorytest.New()
	projects := service.NewProjectService(store)
	members := service.NewMembershipService(store)
	h := New(
		projects,
		members,
		service.NewHierarchyService(store),
		service.NewAccessService(store),
		service.NewTaskService(store),
		logger.New("test", "error", "treeline-api-test"),
	)

	r := gin.New()
	grp := r.Group("/projects", identityAs(userID, super))
	h.Register(grp)

	return &rig{router: r, store: store, projects: projects, members: members}
}

func (rg *rig) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	rg.router.ServeHTTP(w, req)
	return w
}

func (rg *rig) mustCreate(t *testing.T, name string, parentID *string) string {
	t.Helper()
	p, err := rg.projects.Create(context.Background(), service.CreateProject{
		OrgID: testOrg, Name: name, CreatorID: "alice", ParentID: parentID,
	})
	require.NoError(t, err)
	return p.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreateProjectEndpoint(t *testing.T) {
	rg := newRig(t, "alice", false)

	w := rg.do(t, http.MethodPost, "/projects", gin.H{"name": "Platform"})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["ok"])
	project := body["project"].(map[string]any)
	assert.Equal(t, "Platform", project["name"])
	assert.Equal(t, "alice", project["created_by"])
}

func TestCreateProjectBadBody(t *testing.T) {
	rg := newRig(t, "alice", false)

	w := rg.do(t, http.MethodPost, "/projects", gin.H{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// a service-side validation failure is still a 400
	w = rg.do(t, http.MethodPost, "/projects", gin.H{"name": "X", "status": "BOGUS"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateChildRequiresParentAccess(t *testing.T) {
	rg := newRig(t, "bob", false)
	parentID := rg.mustCreate(t, "Parent", nil) // created by alice

	w := rg.do(t, http.MethodPost, "/projects", gin.H{"name": "Child", "parent_id": parentID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// once granted on the parent, bob may create the child
	require.NoError(t, rg.members.AddUserToSubtree(context.Background(), testOrg, parentID, "bob", domain.RoleEditor))
	w = rg.do(t, http.MethodPost, "/projects", gin.H{"name": "Child", "parent_id": parentID})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestGetProjectAccess(t *testing.T) {
	rg := newRig(t, "stranger", false)
	id := rg.mustCreate(t, "Platform", nil)

	w := rg.do(t, http.MethodGet, "/projects/"+id, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "non-member is denied, not shown a 404")
}

func TestGetProjectAsSuperAdmin(t *testing.T) {
	rg := newRig(t, "root-user", true)
	id := rg.mustCreate(t, "Platform", nil)

	w := rg.do(t, http.MethodGet, "/projects/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateProjectCycleConflict(t *testing.T) {
	rg := newRig(t, "alice", false)
	rootID := rg.mustCreate(t, "Root", nil)
	childID := rg.mustCreate(t, "Child", &rootID)

	w := rg.do(t, http.MethodPatch, "/projects/"+rootID, gin.H{
		"set_parent": true, "parent_id": childID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// detaching the child into a root is fine
	w = rg.do(t, http.MethodPatch, "/projects/"+childID, gin.H{
		"set_parent": true, "parent_id": nil,
	})
	require.Equal(t, http.StatusOK, w.Code)
	project := decode(t, w)["project"].(map[string]any)
	assert.Nil(t, project["parent_id"])
}

func TestUpdateProjectEmptyPatch(t *testing.T) {
	rg := newRig(t, "alice", false)
	id := rg.mustCreate(t, "Platform", nil)

	w := rg.do(t, http.MethodPatch, "/projects/"+id, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReparentRequiresAdmin(t *testing.T) {
	rg := newRig(t, "bob", false)
	rootID := rg.mustCreate(t, "Root", nil)
	otherID := rg.mustCreate(t, "Other", nil)
	require.NoError(t, rg.members.AddUserToSubtree(context.Background(), testOrg, rootID, "bob", domain.RoleEditor))
	require.NoError(t, rg.members.AddUserToSubtree(context.Background(), testOrg, otherID, "bob", domain.RoleEditor))

	// editor may patch fields
	w := rg.do(t, http.MethodPatch, "/projects/"+rootID, gin.H{"name": "Renamed"})
	assert.Equal(t, http.StatusOK, w.Code)

	// but not move the project
	w = rg.do(t, http.MethodPatch, "/projects/"+rootID, gin.H{
		"set_parent": true, "parent_id": otherID,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	rg := newRig(t, "bob", false)
	id := rg.mustCreate(t, "Platform", nil)
	require.NoError(t, rg.members.AddUserToSubtree(context.Background(), testOrg, id, "bob", domain.RoleMember))

	w := rg.do(t, http.MethodDelete, "/projects/"+id, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteProjectEndpoint(t *testing.T) {
	rg := newRig(t, "alice", false)
	rootID := rg.mustCreate(t, "Root", nil)
	childID := rg.mustCreate(t, "Child", &rootID)

	w := rg.do(t, http.MethodDelete, "/projects/"+rootID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := rg.store.GetProject(context.Background(), testOrg, childID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "cascade reached the child")
}

func TestArchiveEndpoint(t *testing.T) {
	rg := newRig(t, "alice", false)
	id := rg.mustCreate(t, "Platform", nil)

	w := rg.do(t, http.MethodPost, "/projects/"+id+"/archive", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = rg.do(t, http.MethodGet, "/projects/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "archived project reads as missing")
}

func TestHierarchyEndpoints(t *testing.T) {
	rg := newRig(t, "alice", false)
	rootID := rg.mustCreate(t, "Root", nil)
	midID := rg.mustCreate(t, "Mid", &rootID)
	leafID := rg.mustCreate(t, "Leaf", &midID)

	w := rg.do(t, http.MethodGet, "/projects/"+rootID+"/descendants", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, []any{midID, leafID}, body["descendants"])

	w = rg.do(t, http.MethodGet, "/projects/"+leafID+"/ancestors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, []any{rootID, midID}, body["ancestors"])
}

func TestMemberEndpoints(t *testing.T) {
	rg := newRig(t, "alice", false)
	rootID := rg.mustCreate(t, "Root", nil)
	childID := rg.mustCreate(t, "Child", &rootID)

	w := rg.do(t, http.MethodPost, "/projects/"+rootID+"/members", gin.H{
		"user_id": "bob", "role": "EDITOR",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// the grant fanned out to the child
	w = rg.do(t, http.MethodGet, "/projects/"+childID+"/members", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bob"`)

	w = rg.do(t, http.MethodGet, "/projects/"+childID+"/members/effective", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source_project_id"`)

	w = rg.do(t, http.MethodDelete, "/projects/"+rootID+"/members/bob", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = rg.do(t, http.MethodGet, "/projects/"+childID+"/members", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"bob"`)
}

func TestGrantDefaultsToMemberRole(t *testing.T) {
	rg := newRig(t, "alice", false)
	id := rg.mustCreate(t, "Platform", nil)

	w := rg.do(t, http.MethodPost, fmt.Sprintf("/projects/%s/members", id), gin.H{"user_id": "bob"})
	require.Equal(t, http.StatusCreated, w.Code)

	role, err := rg.store.GetMemberRole(context.Background(), testOrg, id, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, role)
}

func TestGrantRejectsBadRole(t *testing.T) {
	rg := newRig(t, "alice", false)
	id := rg.mustCreate(t, "Platform", nil)

	w := rg.do(t, http.MethodPost, "/projects/"+id+"/members", gin.H{
		"user_id": "bob", "role": "OWNER",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskEndpoints(t *testing.T) {
	rg := newRig(t, "alice", false)
	id := rg.mustCreate(t, "Platform", nil)

	w := rg.do(t, http.MethodPost, "/projects/"+id+"/tasks", gin.H{
		"title": "ship it", "assignees": []string{"alice"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	task := decode(t, w)["task"].(map[string]any)
	taskID := task["id"].(string)
	assert.Equal(t, "OPEN", task["status"])

	w = rg.do(t, http.MethodGet, "/projects/"+id+"/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), taskID)

	w = rg.do(t, http.MethodGet, "/projects/"+id+"/tasks/"+taskID, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGetTaskGatedByTaskRule(t *testing.T) {
	rg := newRig(t, "dan", false)
	id := rg.mustCreate(t, "Platform", nil)
	require.NoError(t, rg.members.AddUserToSubtree(context.Background(), testOrg, id, "dan", domain.RoleMember))

	// task created by alice, not assigned to dan
	task, err := service.NewTaskService(rg.store).Create(context.Background(), service.CreateTask{
		OrgID: testOrg, ProjectID: id, Title: "private", CreatorID: "alice",
	})
	require.NoError(t, err)

	resp := rg.do(t, http.MethodGet, "/projects/"+id+"/tasks/"+task.ID, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code, "plain member may list but not act on others' tasks")
}

// brokenStore injects a store failure below the service layer.
type brokenStore struct {
	repository.Store
}

func (b brokenStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(b)
}

func (b brokenStore) ListProjects(ctx context.Context, orgID string) ([]domain.Project, error) {
	return nil, fmt.Errorf("connection reset by peer")
}

func TestStoreFailureAnswersInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := repositorytest.New()
	seeded := service.NewProjectService(store)
	p, err := seeded.Create(context.Background(), service.CreateProject{
		OrgID: testOrg, Name: "Platform", CreatorID: "alice",
	})
	require.NoError(t, err)

	// access checks still answer from the healthy store; the write path
	// hits the broken one
	broken := brokenStore{Store: store}
	h := New(
		service.NewProjectService(broken),
		service.NewMembershipService(broken),
		service.NewHierarchyService(broken),
		service.NewAccessService(store),
		service.NewTaskService(broken),
		logger.New("test", "error", "treeline-api-test"),
	)

	r := gin.New()
	h.Register(r.Group("/projects", identityAs("alice", false)))

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(gin.H{"user_id": "bob", "role": "EDITOR"}))
	req := httptest.NewRequest(http.MethodPost, "/projects/"+p.ID+"/members", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal error")
	assert.NotContains(t, w.Body.String(), "connection reset", "store details never reach the body")
}
