package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"lernapp-service/internal/app"
	"lernapp-service/internal/domain"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type practicePayload struct {
	Subject domain.Subject `json:"subject"`
}

type startQuestPayload struct {
	QuestID string `json:"questId"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type taskPayload struct {
	Mode       app.PlayMode      `json:"mode"`
	QuestID    string            `json:"questId,omitempty"`
	Subject    domain.Subject    `json:"subject"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Prompt     string            `json:"prompt"`
}

type questCompletedPayload struct {
	QuestID       string `json:"questId"`
	PointsAwarded int    `json:"pointsAwarded"`
	TotalPoints   int    `json:"totalPoints"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS runs the learning screen for the session named by ?token=.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Identity.Resolve(r.Context(), bearerToken(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	play := &playConn{
		h:       h,
		session: session,
		send:    make(chan outboundMessage, 16),
		done:    make(chan struct{}),
	}
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-play.send:
				if err := conn.WriteJSON(msg); err != nil {
					h.logger.Warn("ws write failed", "user", session.Username(), "err", err)
					return
				}
			case <-play.done:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		play.handle(r, inbound)
	}

	h.service.Quests.StopPlay(session)
	close(play.done)
	<-writerDone
}

// playConn is one websocket's view of a session. Timer callbacks push through
// send, so the socket has a single writer.
type playConn struct {
	h       *Handler
	session *app.Session
	send    chan outboundMessage
	done    chan struct{}
}

func (p *playConn) push(typ string, payload any) {
	select {
	case p.send <- outboundMessage{Type: typ, Payload: payload}:
	case <-p.done:
	}
}

func (p *playConn) fail(err error) {
	p.push("error", errorPayload{Message: err.Error()})
}

func (p *playConn) handle(r *http.Request, in inboundMessage) {
	ctx := r.Context()
	quests := p.h.service.Quests

	switch in.Type {
	case "practice":
		var payload practicePayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			p.fail(errors.New("invalid practice payload"))
			return
		}
		if _, err := quests.StartPractice(p.session, payload.Subject); err != nil {
			p.fail(err)
			return
		}
		p.pushTask()
	case "startQuest":
		var payload startQuestPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			p.fail(errors.New("invalid startQuest payload"))
			return
		}
		_, ok, err := quests.StartQuest(ctx, p.session, payload.QuestID)
		if err != nil {
			p.fail(err)
			return
		}
		if ok {
			p.pushTask()
		}
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			p.fail(errors.New("invalid answer payload"))
			return
		}
		outcome, err := quests.SubmitAnswer(ctx, p.session, payload.Answer)
		if err != nil {
			p.fail(err)
			return
		}
		p.push("answerResult", outcome)
		if outcome.QuestCompleted {
			p.push("questCompleted", questCompletedPayload{
				QuestID:       outcome.QuestID,
				PointsAwarded: outcome.PointsAwarded,
				TotalPoints:   outcome.TotalPoints,
			})
		}
		p.session.After(p.h.nextTaskDelay, func() {
			if _, err := quests.NextTask(p.session); err != nil {
				p.fail(err)
				return
			}
			p.pushTask()
		})
	case "stop":
		quests.StopPlay(p.session)
	default:
		p.fail(errors.New("unsupported message type"))
	}
}

func (p *playConn) pushTask() {
	play := p.session.Play()
	if play.Task == nil {
		return
	}
	p.push("task", taskPayload{
		Mode:       play.Mode,
		QuestID:    play.QuestID,
		Subject:    play.Task.Subject,
		Difficulty: play.Task.Difficulty,
		Prompt:     play.Task.Prompt,
	})
}
