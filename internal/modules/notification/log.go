// README: Notifier that only writes the event to the structured log.
package notification

import (
	"context"

	"github.com/sirupsen/logrus"
)

type LogNotifier struct {
	log logrus.FieldLogger
}

func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, note Notification) error {
	n.log.WithFields(logrus.Fields{
		"notification_id": note.ID,
		"user_id":         note.UserID,
		"type":            note.Type,
	}).Info(note.Title)
	return nil
}
