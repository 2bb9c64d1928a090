package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/typewriter"
)

type headlineFrame struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
	Phase string `json:"phase"`
}

func frameOf(st typewriter.State) headlineFrame {
	return headlineFrame{Text: st.Text, Index: st.TextIndex, Phase: st.Phase.String()}
}

// handleHeadlineStream animates one headline over Server-Sent Events. Every
// connection owns its own engine, disposed when the client goes away or
// the headline finishes.
func (s *server) handleHeadlineStream(c *gin.Context) {
	name := c.Param("name")
	if _, ok := s.cfg.Headlines[name]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Headline not found"})
		return
	}

	hc := s.cfg.headline(name)
	if raw := c.Query("loop"); raw != "" {
		loop, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "loop must be a boolean"})
			return
		}
		hc.Loop = loop
	}

	log := s.log.With().Str("component", "headline").Str("headline", name).Logger()
	ctx := c.Request.Context()
	frames := make(chan headlineFrame, 8)
	engine, err := typewriter.New(hc,
		typewriter.WithScheduler(s.sched),
		typewriter.WithLogger(log),
		typewriter.WithSubscriber(func(st typewriter.State) {
			// escapes on ctx so the deferred Dispose never waits on a gone client
			select {
			case frames <- frameOf(st):
			case <-ctx.Done():
			}
		}),
	)
	if err != nil {
		log.Error().Err(err).Msg("starting headline")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start headline"})
		return
	}
	defer engine.Dispose()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("headline", frameOf(typewriter.State{Phase: typewriter.Typing}))
	c.Writer.Flush()

	for {
		select {
		case frame := <-frames:
			c.SSEvent("headline", frame)
			c.Writer.Flush()
		case <-engine.Done():
			for {
				select {
				case frame := <-frames:
					c.SSEvent("headline", frame)
				default:
					c.SSEvent("done", gin.H{"text": engine.CurrentText()})
					c.Writer.Flush()
					return
				}
			}
		case <-ctx.Done():
			log.Debug().Msg("headline client disconnected")
			return
		}
	}
}
