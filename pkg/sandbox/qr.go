package sandbox

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/realtime"
)

// Redemption rules the sandbox attaches to every identified card.
var sandboxRules = model.PointsRules{
	PointsPerCurrency:      10,
	CurrencyAmount:         1,
	MinPointsForRedemption: 10,
	MaxPointsPerRedemption: 1000,
}

type generateRequest struct {
	DeviceName string `json:"device_name"`
	ShopID     int    `json:"shop_id"`
}

func (s *Server) handleGenerateQRLogin(c echo.Context) error {
	req := generateRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "malformed request body")
	}

	sess := s.sessions.create(model.SessionKindLogin, req.DeviceName, req.ShopID)

	return respond(c, http.StatusCreated, model.QRLoginSession{
		SessionID: sess.ID,
		QRCode:    "loyalty://login/" + sess.ID,
		Status:    sess.Status,
		ExpiresAt: sess.ExpiresAt,
	})
}

func (s *Server) handlePollQRLogin(c echo.Context) error {
	sess, ok := s.sessions.get(c.Param("id"))
	if !ok || sess.Kind != model.SessionKindLogin {
		return fail(c, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown login session")
	}

	poll := model.QRLoginPoll{Status: sess.Status}
	if sess.Status == "authenticated" {
		poll.Token = sess.Token
		poll.RefreshToken = sess.RefreshToken
		poll.ExpiresIn = 3600
		poll.User = sess.User
	}

	return respond(c, http.StatusOK, poll)
}

func (s *Server) handleGenerateQRCard(c echo.Context) error {
	req := generateRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "malformed request body")
	}

	sess := s.sessions.create(model.SessionKindCardScan, req.DeviceName, req.ShopID)

	return respond(c, http.StatusCreated, model.QRCardSession{
		SessionID: sess.ID,
		QRCode:    "loyalty://card/" + sess.ID,
		Channel:   sess.Channel,
		ShopID:    sess.ShopID,
		ExpiresAt: sess.ExpiresAt,
	})
}

func (s *Server) handleQRCardStatus(c echo.Context) error {
	sess, ok := s.sessions.get(c.Param("id"))
	if !ok || sess.Kind != model.SessionKindCardScan {
		return fail(c, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown card session")
	}

	return respond(c, http.StatusOK, model.QRCardPoll{
		SessionID: sess.ID,
		Status:    sess.Status,
		CardData:  sess.Card,
		ExpiresAt: sess.ExpiresAt,
	})
}

type mintTokenRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleMintToken(c echo.Context) error {
	req := mintTokenRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "malformed request body")
	}

	sess, ok := s.sessions.get(req.SessionID)
	if !ok {
		return fail(c, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown session")
	}

	return respond(c, http.StatusCreated, model.ChannelToken{
		Token:       "sandbox-" + uuid.NewString(),
		Expires:     time.Now().Add(15 * time.Minute).Unix(),
		Channel:     sess.Channel,
		SessionType: string(sess.Kind),
	})
}

func (s *Server) handleSimulateScan(c echo.Context) error {
	sess, ok := s.sessions.update(c.Param("id"), func(sess *qrSession) {
		if sess.Status == "pending" {
			sess.Status = "scanned"
		}
	})
	if !ok || sess.Kind != model.SessionKindLogin {
		return fail(c, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown login session")
	}

	s.publishStatus(sess)
	return respond(c, http.StatusOK, map[string]string{"status": sess.Status})
}

type confirmRequest struct {
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

func (s *Server) handleSimulateConfirm(c echo.Context) error {
	req := confirmRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "malformed request body")
	}
	if req.UserID == 0 {
		req.UserID = 1
	}

	sess, ok := s.sessions.update(c.Param("id"), func(sess *qrSession) {
		sess.Status = "authenticated"
		sess.Token = "sandbox-access-" + uuid.NewString()
		sess.RefreshToken = "sandbox-refresh-" + uuid.NewString()
		sess.User = &model.User{ID: req.UserID, Name: req.Name, Email: req.Email}
	})
	if !ok || sess.Kind != model.SessionKindLogin {
		return fail(c, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown login session")
	}

	s.publishStatus(sess)
	return respond(c, http.StatusOK, map[string]string{"status": sess.Status})
}

func (s *Server) handleSimulateCancel(c echo.Context) error {
	sess, ok := s.sessions.update(c.Param("id"), func(sess *qrSession) {
		sess.Status = "cancelled"
	})
	if !ok || sess.Kind != model.SessionKindLogin {
		return fail(c, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown login session")
	}

	s.publishStatus(sess)
	return respond(c, http.StatusOK, map[string]string{"status": sess.Status})
}

type identifyRequest struct {
	CardNumber string `json:"card_number"`
}

func (s *Server) handleSimulateIdentify(c echo.Context) error {
	req := identifyRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "malformed request body")
	}

	card, err := s.store.Cards().FindByNumber(req.CardNumber)
	if err != nil {
		return failStorage(c, err)
	}

	rules := sandboxRules
	scan := &model.CardScanData{
		LoyaltyCardID: card.ID,
		CardNumber:    card.CardNumber,
		Points:        card.PointsBalance,
		User:          model.User{ID: card.UserID},
		Redemption:    &rules,
		ScannedAt:     time.Now().UTC(),
	}

	sess, ok := s.sessions.update(c.Param("id"), func(sess *qrSession) {
		sess.Status = "authenticated"
		sess.Card = scan
	})
	if !ok || sess.Kind != model.SessionKindCardScan {
		return fail(c, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown card session")
	}

	s.publishCardIdentified(sess)
	return respond(c, http.StatusOK, map[string]string{"status": sess.Status})
}

func (s *Server) publishStatus(sess qrSession) {
	data := model.QRLoginStatusData{
		SessionID: sess.ID,
		Status:    sess.Status,
	}
	if sess.Status == "authenticated" {
		data.Token = sess.Token
		data.RefreshToken = sess.RefreshToken
		data.ExpiresIn = 3600
		data.User = sess.User
	}
	s.publish(sess.Channel, realtime.MessageTypeStatusUpdate, data)
}

func (s *Server) publishCardIdentified(sess qrSession) {
	if sess.Card == nil {
		return
	}
	s.publish(sess.Channel, realtime.MessageTypeCardIdentified, model.CardIdentifiedData{
		SessionID: sess.ID,
		Status:    sess.Status,
		CardData:  *sess.Card,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) publish(channel, msgType string, payload interface{}) {
	if s.pub == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("sandbox: failed to encode %s payload: %s", msgType, err)
		return
	}

	frame, err := json.Marshal(realtime.Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		log.Errorf("sandbox: failed to encode %s frame: %s", msgType, err)
		return
	}

	if err := s.pub.Publish(channel, frame); err != nil {
		log.Errorf("sandbox: failed to publish on '%s': %s", channel, err)
	}
}
