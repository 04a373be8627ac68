package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"shopflow-tracking/internal/domain"
	"shopflow-tracking/internal/logx"
)

const (
	streamWriteWait  = 5 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
	streamReadLimit  = 512
)

// Stream handles GET /orders/{id}/stream. It upgrades to a websocket and
// pushes an order snapshot after every change. The socket is closed once
// the order reaches a terminal status.
func (h *OrderHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r)
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	if _, err := h.uc.GetOrderByID(r.Context(), id); err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", logx.OrderID(id), logx.Err(err))
		return
	}
	defer conn.Close()

	updates := make(chan *domain.Order, 1)
	unsubscribe, err := h.uc.SubscribeToOrder(r.Context(), id, func(o *domain.Order) {
		pushLatest(updates, o)
	})
	if err != nil {
		h.logger.Warn("stream subscribe failed", logx.OrderID(id), logx.Err(err))
		closeStream(conn, websocket.CloseInternalServerErr, "subscribe failed")
		return
	}
	defer unsubscribe()

	h.logger.Debug("stream opened", logx.OrderID(id), logx.String("req_id", reqID(r.Context())))

	done := make(chan struct{})
	go readUntilClosed(conn, done)

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			h.logger.Debug("stream closed by client", logx.OrderID(id))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case o := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(modelToResponse(*o, h.clock.Now())); err != nil {
				h.logger.Debug("stream write failed", logx.OrderID(id), logx.Err(err))
				return
			}
			if o.Status.Terminal() {
				closeStream(conn, websocket.CloseNormalClosure, "order "+string(o.Status))
				return
			}
		}
	}
}

// pushLatest keeps only the newest snapshot in ch. Listeners run under the
// order lock, so it never blocks.
func pushLatest(ch chan *domain.Order, o *domain.Order) {
	for {
		select {
		case ch <- o:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func readUntilClosed(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func closeStream(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteWait))
}
