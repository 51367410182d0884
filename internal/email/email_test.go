package email

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RenderGroupInvitation(t *testing.T) {
	s := NewService(&Config{From: "noreply@fishlog.app", FromName: "FishLog"})

	body, err := s.Render(TemplateGroupInvitation, GroupInvitationData{
		GroupName:  "Bass Masters",
		InvitedBy:  "Ann <script>",
		InviteURL:  "https://fishlog.app/invitations",
		ExpiresAt:  time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
		ExpiryDays: 7,
	})

	require.NoError(t, err)
	assert.Contains(t, body, "Bass Masters")
	assert.Contains(t, body, "Mar 7, 2026")
	assert.Contains(t, body, "expires in 7 days")
	assert.NotContains(t, body, "<script>")
}

func TestService_UnknownTemplate(t *testing.T) {
	s := NewService(&Config{})
	_, err := s.Render("nope", nil)
	assert.Error(t, err)
}

func TestService_SendWithoutHostIsSkipped(t *testing.T) {
	s := NewService(&Config{})
	assert.False(t, s.Configured())
	assert.NoError(t, s.SendWithTemplate([]string{"a@b.c"}, "hi", TemplateGroupInvitation, GroupInvitationData{}))
}

func TestService_BuildMessage(t *testing.T) {
	s := NewService(&Config{From: "noreply@fishlog.app", FromName: "FishLog"})
	msg := string(s.buildMessage(&Email{To: []string{"a@b.c", "d@e.f"}, Subject: "Hello", HTMLBody: "<p>x</p>"}))

	assert.True(t, strings.HasPrefix(msg, "From: FishLog <noreply@fishlog.app>\r\n"))
	assert.Contains(t, msg, "To: a@b.c, d@e.f\r\n")
	assert.Contains(t, msg, "Content-Type: text/html")
}

func TestEmailQueue_Nil(t *testing.T) {
	var q *EmailQueue
	assert.NotPanics(t, func() {
		q.SendGroupInvitation("a@b.c", GroupInvitationData{GroupName: "G"})
		q.Stop()
	})
	assert.Equal(t, 0, q.Pending())
}
