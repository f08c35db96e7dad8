package server

import (
	"embed"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quayside/quayside/internal/kanban"
	"github.com/quayside/quayside/internal/models"
	"github.com/quayside/quayside/internal/project"
)

//go:embed templates/*.html
var templatesFS embed.FS

// boardColumn is one rendered column: the fallback bucket gets a
// synthetic header, real columns carry their status metadata.
type boardColumn struct {
	Name  string
	Color string
	Tasks []models.Task
}

// handleBoardPage renders the server-side read-only board view.
func (s *Server) handleBoardPage(c *gin.Context) {
	projectID := c.Param("projectID")

	p, err := project.Get(s.db, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	board, err := kanban.GetBoard(s.db, projectID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	columns := make([]boardColumn, 0, len(board.TaskLists))
	for i, tasks := range board.TaskLists {
		col := boardColumn{Tasks: tasks}
		if i == 0 {
			col.Name = "Unassigned"
			col.Color = "888888"
		} else {
			col.Name = board.Statuses[i-1].Name
			col.Color = board.Statuses[i-1].Color
		}
		// The fallback column is hidden while empty.
		if i == 0 && len(tasks) == 0 {
			continue
		}
		columns = append(columns, col)
	}

	c.HTML(http.StatusOK, "board.html", gin.H{
		"Project": p,
		"Columns": columns,
	})
}
