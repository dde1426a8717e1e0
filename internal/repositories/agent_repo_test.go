package repositories

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/google/uuid"

	"clawe/internal/models"
)

type AgentRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    AgentRepository
	context context.Context
}

func (suite *AgentRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewAgentRepo(mock)
	suite.context = context.Background()
}

func (suite *AgentRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestAgentRepoTestSuite(t *testing.T) {
	suite.Run(t, new(AgentRepoTestSuite))
}

func agentRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "agent_id", "name", "role", "emoji", "session_key", "agent_type",
		"cron_schedule", "model", "status", "current_task", "last_heartbeat",
		"created_at", "updated_at",
	})
}

func (suite *AgentRepoTestSuite) TestUpsert() {
	agentID := uuid.New()
	now := time.Now()

	suite.mock.ExpectQuery(`INSERT INTO agents`).
		WithArgs(pgxmock.AnyArg(), "scout", "Scout", "Researcher", "🤖",
			"agent:scout:main", "worker", "15,45 * * * *", "anthropic/claude-sonnet-4-20250514").
		WillReturnRows(agentRows().AddRow(
			agentID, "scout", "Scout", "Researcher", "🤖", "agent:scout:main",
			"worker", "15,45 * * * *", "anthropic/claude-sonnet-4-20250514",
			"offline", nil, nil, now, now,
		))

	stored, err := suite.repo.Upsert(suite.context, &models.Agent{
		AgentID:      "scout",
		Name:         "Scout",
		Role:         "Researcher",
		Emoji:        "🤖",
		SessionKey:   "agent:scout:main",
		AgentType:    "worker",
		CronSchedule: "15,45 * * * *",
		Model:        "anthropic/claude-sonnet-4-20250514",
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), agentID, stored.ID)
	assert.Equal(suite.T(), "scout", stored.AgentID)
	assert.Nil(suite.T(), stored.LastHeartbeat)
}

func (suite *AgentRepoTestSuite) TestGetByAgentID_NotFound() {
	suite.mock.ExpectQuery(`FROM agents`).
		WithArgs("ghost").
		WillReturnRows(agentRows())

	agent, err := suite.repo.GetByAgentID(suite.context, "ghost")
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), agent)
}

func (suite *AgentRepoTestSuite) TestList() {
	now := time.Now()
	heartbeat := now.UnixMilli()

	suite.mock.ExpectQuery(`FROM agents`).
		WillReturnRows(agentRows().
			AddRow(uuid.New(), "clawe", "Clawe", "Squad Lead", "🦞", "agent:clawe:main",
				"lead", "15,45 * * * *", "anthropic/claude-sonnet-4-20250514",
				"online", nil, &heartbeat, now, now).
			AddRow(uuid.New(), "scout", "Scout", "Researcher", "🤖", "agent:scout:main",
				"worker", "15,45 * * * *", "anthropic/claude-sonnet-4-20250514",
				"offline", nil, nil, now, now))

	result, err := suite.repo.List(suite.context)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result, 2)
	assert.Equal(suite.T(), "clawe", result[0].AgentID)
	assert.NotNil(suite.T(), result[0].LastHeartbeat)
	assert.Nil(suite.T(), result[1].LastHeartbeat)
}

func (suite *AgentRepoTestSuite) TestRecordHeartbeat() {
	suite.mock.ExpectExec(`UPDATE agents`).
		WithArgs("scout", int64(1700000000000)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.RecordHeartbeat(suite.context, "scout", 1700000000000)
	assert.NoError(suite.T(), err)
}
