package api

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"stakearena/application"
	"stakearena/config"
	"stakearena/domain/entities"
	"stakearena/domain/interfaces"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// withServices runs fn inside one unit of work. The transaction commits only
// when fn succeeds; any error rolls back and maps to an HTTP status.
func (s *Server) withServices(c *gin.Context, fn func(ctx context.Context, svcs *application.ServiceSet) (any, error)) {
	ctx := c.Request.Context()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Error("Failed to begin transaction")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	result, err := fn(ctx, application.NewServiceSet(uow))
	if err != nil {
		uow.Rollback()
		respondError(c, err)
		return
	}

	if err := uow.Commit(); err != nil {
		log.WithError(err).Error("Failed to commit transaction")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func respondError(c *gin.Context, err error) {
	switch {
	case entities.IsRejection(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case entities.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, entities.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.WithError(err).Error("Unhandled error in request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
		return
	}
	if req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username required"})
		return
	}

	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		user, err := svcs.Users.GetOrCreateUser(ctx, req.Username)
		if err != nil {
			return nil, err
		}

		role := "user"
		if slices.Contains(config.Get().AdminUsernames, user.Username) {
			role = "admin"
		}
		token, err := newToken(s.jwtSecret, user.ID, role)
		if err != nil {
			return nil, err
		}
		c.SetCookie(cookieName, token, 86400, "/", "", false, true)
		return user, nil
	})
}

func (s *Server) getMe(c *gin.Context) {
	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		return svcs.Users.GetUser(ctx, uid(c))
	})
}

// getUser returns a public profile: the user row with per-game ELO plus the
// tail of their ledger
func (s *Server) getUser(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}
	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		user, err := svcs.Users.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		ledger, err := svcs.Escrow.History(ctx, userID, 20)
		if err != nil {
			return nil, err
		}
		return gin.H{"user": user, "ledger": ledger}, nil
	})
}

func (s *Server) getLedger(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		return svcs.Escrow.History(ctx, uid(c), limit)
	})
}

func (s *Server) transfer(c *gin.Context) {
	var req struct {
		ToUserID int64 `json:"to_user_id"`
		Amount   int64 `json:"amount"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
		return
	}
	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		if err := svcs.Users.TransferBetweenUsers(ctx, uid(c), req.ToUserID, req.Amount); err != nil {
			return nil, err
		}
		return gin.H{"ok": true}, nil
	})
}

func (s *Server) createTeam(c *gin.Context) {
	var req struct {
		Name      string  `json:"name"`
		MemberIDs []int64 `json:"member_ids"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		return svcs.Teams.CreateTeam(ctx, req.Name, uid(c), req.MemberIDs)
	})
}

func (s *Server) getTeam(c *gin.Context) {
	teamID, ok := pathID(c)
	if !ok {
		return
	}
	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		return svcs.Teams.GetTeam(ctx, teamID)
	})
}

func (s *Server) listMatches(c *gin.Context) {
	filter := interfaces.MatchFilter{Limit: 100}
	if v := c.Query("status"); v != "" {
		status := entities.MatchStatus(v)
		filter.Status = &status
	}
	if v := c.Query("game_id"); v != "" {
		filter.GameID = &v
	}
	if v := c.Query("region"); v != "" {
		filter.Region = &v
	}
	if v := c.Query("min_wager"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MinWager = &n
		}
	}
	if v := c.Query("max_wager"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MaxWager = &n
		}
	}

	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		return svcs.Matches.ListMatches(ctx, filter)
	})
}

func (s *Server) createMatch(c *gin.Context) {
	var req struct {
		GameID   string `json:"game_id"`
		Wager    int64  `json:"wager"`
		TeamSize int    `json:"team_size"`
		Region   string `json:"region"`
		Platform string `json:"platform"`
		Privacy  string `json:"privacy"`
		TeamID   *int64 `json:"team_id"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
		return
	}

	privacy := entities.MatchPrivacyPublic
	if req.Privacy == string(entities.MatchPrivacyPrivate) {
		privacy = entities.MatchPrivacyPrivate
	}

	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		return svcs.Matches.CreateMatch(ctx, interfaces.CreateMatchParams{
			CreatorID: uid(c),
			GameID:    req.GameID,
			Wager:     req.Wager,
			TeamSize:  entities.TeamSize(req.TeamSize),
			Region:    req.Region,
			Platform:  req.Platform,
			Privacy:   privacy,
			TeamID:    req.TeamID,
		})
	})
}

func (s *Server) getMatch(c *gin.Context) {
	matchID, ok := pathID(c)
	if !ok {
		return
	}
	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		return svcs.Matches.GetMatch(ctx, matchID)
	})
}

func (s *Server) joinMatch(c *gin.Context) {
	matchID, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Side string `json:"side"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
		return
	}
	side := entities.Side(req.Side)
	if !side.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "side must be 'a' or 'b'"})
		return
	}

	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		return svcs.Matches.JoinTeam(ctx, matchID, uid(c), side)
	})
}

func (s *Server) joinByCode(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
		return
	}
	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		return svcs.Matches.JoinByInviteCode(ctx, req.Code, uid(c))
	})
}

func (s *Server) markReady(c *gin.Context) {
	matchID, ok := pathID(c)
	if !ok {
		return
	}
	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		if err := svcs.Matches.MarkReady(ctx, matchID, uid(c)); err != nil {
			return nil, err
		}
		return gin.H{"ok": true}, nil
	})
}

func (s *Server) startMatch(c *gin.Context) {
	matchID, ok := pathID(c)
	if !ok {
		return
	}
	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		return svcs.Matches.StartPrivateMatch(ctx, matchID, uid(c))
	})
}

func (s *Server) reportResult(c *gin.Context) {
	matchID, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Winner string `json:"winner"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
		return
	}
	winner := entities.Side(req.Winner)
	if !winner.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "winner must be 'a' or 'b'"})
		return
	}

	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		return svcs.Matches.ReportResult(ctx, matchID, uid(c), winner)
	})
}

func (s *Server) openDispute(c *gin.Context) {
	matchID, ok := pathID(c)
	if !ok {
		return
	}
	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		return svcs.Disputes.OpenDispute(ctx, matchID, uid(c))
	})
}

func (s *Server) submitEvidence(c *gin.Context) {
	matchID, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		YoutubeLink string `json:"youtube_link"`
		Message     string `json:"message"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
		return
	}

	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		return svcs.Disputes.SubmitEvidence(ctx, matchID, uid(c), req.YoutubeLink, req.Message)
	})
}

func (s *Server) adminForceSettle(c *gin.Context) {
	matchID, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Winner        *string `json:"winner"` // nil refunds both sides
		RatingPenalty int     `json:"rating_penalty"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
		return
	}

	var winner *entities.Side
	if req.Winner != nil {
		side := entities.Side(*req.Winner)
		if !side.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "winner must be 'a', 'b', or null"})
			return
		}
		winner = &side
	}

	s.withServices(c, func(ctx context.Context, svcs *application.ServiceSet) (any, error) {
		return svcs.Disputes.AdminForceSettle(ctx, matchID, winner, req.RatingPenalty)
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
