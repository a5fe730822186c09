package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSend(t *testing.T) {
	var got []string
	n := New(true, nil)
	n.send = func(title, message string) error {
		got = append(got, title+": "+message)
		return errors.New("no daemon")
	}

	n.Send("Zeitbericht fertig")
	assert.Equal(t, []string{"teamtime: Zeitbericht fertig"}, got)

	n.enabled = false
	n.Send("ignored")
	assert.Len(t, got, 1)

	var nilNotifier *Notifier
	nilNotifier.Send("no panic")
}
