package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/muesli/reflow/wordwrap"
	"github.com/pixil98/go-bunker/internal/messaging"
	"github.com/pixil98/go-log"
)

const defaultWidth = 78

// Subscriber provides the ability to subscribe to message subjects
type Subscriber interface {
	Subscribe(subject string, handler func(data []byte)) (unsubscribe func(), err error)
}

// Line templates per event kind. Kinds without a template produce no feed
// line; sound cues go to the sfx subject instead.
var defaultTemplates = map[string]string{
	"hit":            `{{ .Event.Actor | default "someone" }} takes {{ .Event.Damage }} damage.`,
	"entity_died":    `{{ if eq .Event.Actor "player" }}You have died.{{ else }}The {{ .Event.Actor }} dies.{{ end }}`,
	"alert_sounded":  `The {{ .Event.Actor }} cries out an alarm!`,
	"item_dropped":   `{{ .Event.Item | title }} drops to the floor{{ with .Event.Weapon }} ({{ . }}){{ end }}.`,
	"item_picked_up": `You pick up {{ .Event.Item }}{{ with .Event.Amount }} x{{ . }}{{ end }}.`,
	"score_awarded":  `You score {{ .Event.Amount }} points for the {{ .Event.Actor }}.`,
}

// Feed turns the event stream into human-readable lines on the log. It is a
// stand-in for a real frontend and doubles as a worked example of consuming
// the fanout.
type Feed struct {
	sub       Subscriber
	width     int
	templates map[string]*template.Template
}

func NewFeed(sub Subscriber, opts ...FeedOpt) (*Feed, error) {
	f := &Feed{
		sub:       sub,
		width:     defaultWidth,
		templates: map[string]*template.Template{},
	}

	for _, opt := range opts {
		opt(f)
	}

	for kind, text := range defaultTemplates {
		tmpl, err := template.New(kind).Funcs(sprig.TxtFuncMap()).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", kind, err)
		}
		f.templates[kind] = tmpl
	}

	return f, nil
}

// Start subscribes to the event stream and blocks until the context ends.
func (f *Feed) Start(ctx context.Context) error {
	logger := log.GetLogger(ctx)

	subject := messaging.SubjectEvents + ".>"

	var unsub func()
	var err error
	for attempt := 0; attempt < 20; attempt++ {
		unsub, err = f.sub.Subscribe(subject, func(data []byte) {
			f.render(data, logger.Infof)
		})
		if err == nil {
			break
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(250 * time.Millisecond):
		}
	}
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	defer unsub()

	<-ctx.Done()
	return nil
}

func (f *Feed) render(data []byte, emit func(string, ...interface{})) {
	var env messaging.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}

	tmpl, ok := f.templates[env.Event.Kind.String()]
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, env); err != nil {
		return
	}

	emit("%s", wordwrap.String(buf.String(), f.width))
}
