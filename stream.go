package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/content"
	"github.com/Zachkp/portfolio/loader"
	"github.com/Zachkp/portfolio/reveal"
	"github.com/Zachkp/portfolio/session"
)

// revealConfig builds an engine config for text from the request query:
// order, speed (ms), activation (or lazy=1) and seed.
func (s *server) revealConfig(c *gin.Context, text string) (reveal.Config, error) {
	cfg := reveal.Config{
		Target: text,
		Order:  s.cfg.RevealOrder(),
		Speed:  s.cfg.RevealSpeed(),
		Clock:  s.clock,
	}
	if s.cfg.Reveal.Charset != "" {
		cfg.Charset = []rune(s.cfg.Reveal.Charset)
	}

	if v := c.Query("order"); v != "" {
		order, err := reveal.ParseOrder(v)
		if err != nil {
			return cfg, err
		}
		cfg.Order = order
	}
	if v := c.Query("speed"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: speed %q is not a number", reveal.ErrInvalidConfig, v)
		}
		if ms > s.cfg.Reveal.MaxSpeedMs {
			return cfg, fmt.Errorf("%w: speed %dms exceeds %dms", reveal.ErrInvalidConfig, ms, s.cfg.Reveal.MaxSpeedMs)
		}
		cfg.Speed = time.Duration(ms) * time.Millisecond
	}
	if v := c.Query("activation"); v != "" {
		a, err := reveal.ParseActivation(v)
		if err != nil {
			return cfg, err
		}
		cfg.Activation = a
	}
	if lazy, _ := strconv.ParseBool(c.Query("lazy")); lazy {
		cfg.Activation = reveal.OnFirstVisible
	}
	if v := c.Query("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("%w: seed %q is not an unsigned integer", reveal.ErrInvalidConfig, v)
		}
		cfg.Rand = rand.New(rand.NewPCG(seed, seed))
	}
	return cfg, nil
}

func sseHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// streamReveal runs one reveal engine for the slot and streams every state.
func (s *server) streamReveal(c *gin.Context) {
	slot := c.Param("slot")
	text, err := s.store.RevealText(c.Request.Context(), slot)
	if errors.Is(err, content.ErrUnknownSlot) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.log.Error("reveal slot lookup", "slot", slot, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "content unavailable"})
		return
	}

	cfg, err := s.revealConfig(c, text)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	requested := cfg.Activation
	// gate every engine so the subscription exists before the first tick
	cfg.Activation = reveal.OnFirstVisible
	eng, err := reveal.New(cfg)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// one emission per non-space rune at most, so sends never block
	states := make(chan reveal.State, utf8.RuneCountInString(text)+1)
	eng.Subscribe(func(st reveal.State) {
		select {
		case states <- st:
		default:
		}
	})
	initial := eng.State()
	if requested == reveal.Immediate {
		eng.NotifyVisible()
	}

	id, closed := s.streams.Add(session.KindReveal, slot, eng)
	defer s.streams.Remove(id)
	defer eng.Dispose()
	s.log.Debug("reveal stream opened", "id", id, "slot", slot, "order", cfg.Order.String(), "activation", requested.String())

	sseHeaders(c)
	c.SSEvent("session", gin.H{"id": id, "slot": slot, "activation": requested.String()})
	c.SSEvent("state", initial)
	c.Writer.Flush()
	if initial.Complete {
		return
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case st := <-states:
			c.SSEvent("state", st)
			return !st.Complete
		case <-closed:
			return false
		case <-s.quit:
			return false
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// streamLoader runs the staged loader and streams its progress. Intermediate
// samples may be coalesced; the terminal state always arrives.
func (s *server) streamLoader(c *gin.Context) {
	cfg := s.cfg.LoaderConfig()
	cfg.Clock = s.clock

	// latest-wins: a slow client sees fewer samples, never a stale terminal
	latest := make(chan loader.State, 1)
	done := make(chan struct{})

	ctrl, err := loader.New(cfg, func() { close(done) })
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctrl.Subscribe(func(st loader.State) {
		select {
		case <-latest:
		default:
		}
		latest <- st
	})

	id, closed := s.streams.Add(session.KindLoader, "loader", ctrl)
	defer s.streams.Remove(id)
	defer ctrl.Dispose()

	sseHeaders(c)
	c.SSEvent("session", gin.H{"id": id})
	c.SSEvent("state", ctrl.State())
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case st := <-latest:
			c.SSEvent("state", st)
			return true
		case <-done:
			select {
			case st := <-latest:
				c.SSEvent("state", st)
			default:
			}
			c.SSEvent("complete", gin.H{"id": id})
			return false
		case <-closed:
			return false
		case <-s.quit:
			return false
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (s *server) notifyVisible(c *gin.Context) {
	eng, kind, err := s.streams.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	v, ok := eng.(interface{ NotifyVisible() })
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("%s streams have no visibility trigger", kind)})
		return
	}
	v.NotifyVisible()
	c.Status(http.StatusNoContent)
}

func (s *server) skipLoader(c *gin.Context) {
	eng, kind, err := s.streams.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	f, ok := eng.(interface{ FinishNow() })
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("%s streams cannot be skipped", kind)})
		return
	}
	f.FinishNow()
	c.Status(http.StatusNoContent)
}
