package scheduler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotoslider/choom-bridge/internal/backup"
	"github.com/rotoslider/choom-bridge/internal/companion"
)

// sendToOwner formats and delivers a scheduled message, attributed to
// companionName, with or without a synthesized voice note (scheduler.py
// send_message_to_owner).
func (s *Scheduler) sendToOwner(ctx context.Context, text string, companionName string, includeAudio bool) {
	if text == "" {
		return
	}
	var err error
	if includeAudio {
		voice := s.voiceFor(ctx, companionName)
		err = s.composer.Send(ctx, s.ownerRecipient, text, companionName, voice, nil)
	} else {
		err = s.composer.SendText(ctx, s.ownerRecipient, text, companionName, nil)
	}
	if err != nil {
		s.log.Error().Err(err).Msg("scheduler: failed to send scheduled message")
	}
}

func (s *Scheduler) voiceFor(ctx context.Context, companionName string) string {
	comp, ok := s.companion.GetByName(ctx, companionName)
	if !ok {
		return ""
	}
	return comp.VoiceID
}

// morningBriefing fetches real weather/calendar/reminder data, hands it
// to the default companion as a fresh_chat turn, and falls back to a
// deterministic briefing if the companion echoes the prompt template or
// produces nothing (scheduler.py _morning_briefing / echo detection).
func (s *Scheduler) morningBriefing(ctx context.Context) {
	s.log.Info().Msg("scheduler: running morning briefing")

	weatherText := "Weather data unavailable."
	if reading, err := s.companion.GetWeather(ctx, ""); err == nil {
		weatherText = fmt.Sprintf("Conditions: %s, Temperature: %.0f°F (feels like %.0f°F), Wind: %.0f mph, Humidity: %.0f%%.",
			reading.Description, reading.Temperature, reading.FeelsLike, reading.WindSpeed, reading.Humidity)
	}

	reminderText := "No reminders set for today."
	if doc, err := s.store.Load(); err == nil {
		today := time.Now().Format("2006-01-02")
		var lines []string
		for _, r := range doc.GetReminders() {
			if strings.HasPrefix(r.RemindAt, today) {
				when := "sometime today"
				if t, err := time.Parse(time.RFC3339, r.RemindAt); err == nil {
					when = t.Format("03:04 PM")
				}
				lines = append(lines, fmt.Sprintf("- %s (%s)", r.Text, when))
			}
		}
		if len(lines) > 0 {
			reminderText = "Today's reminders:\n" + strings.Join(lines, "\n")
		}
	}

	owner := s.ownerName
	if owner == "" {
		owner = "friend"
	}
	now := time.Now()
	prompt := fmt.Sprintf(
		"Good morning! It's %s. Give %s a brief, friendly morning update using ONLY the data below. Do not invent anything.\n\n"+
			"Weather: %s\n\nReminders: %s\n\n"+
			"Include a warm greeting, the weather summary, and any reminders. Keep it conversational for speaking aloud, "+
			"no markdown. Do NOT repeat these instructions or mention that you were given data.",
		now.Format("Monday, January 2"), owner, weatherText, reminderText)

	resp, err := s.companion.SendMessage(ctx, s.defaultCompanion, prompt, companion.SendOptions{FreshChat: true})
	if err != nil || resp.Text == "" {
		s.sendBasicMorningBriefing(ctx)
		return
	}

	message := resp.Text
	lower := strings.ToLower(message)
	echoMarkers := []string{"do not repeat", "these instructions", "only the data below"}
	for _, marker := range echoMarkers {
		if strings.Contains(lower, marker) {
			s.log.Warn().Msg("scheduler: morning briefing echoed template markers, using fallback")
			s.sendBasicMorningBriefing(ctx)
			return
		}
	}

	if report, err := s.companion.CheckHealth(ctx, nil); err == nil {
		if issues := report.Unhealthy(); len(issues) > 0 {
			message += "\n\nBy the way, I noticed some system issues: " + strings.Join(issues, ", ") + " may need attention."
		}
	}
	s.sendToOwner(ctx, message, s.defaultCompanion, true)
}

// sendBasicMorningBriefing is the deterministic fallback when the
// companion is unavailable or echoed its prompt (scheduler.py
// _send_basic_morning_briefing).
func (s *Scheduler) sendBasicMorningBriefing(ctx context.Context) {
	owner := s.ownerName
	if owner == "" {
		owner = "friend"
	}
	now := time.Now()
	parts := []string{fmt.Sprintf("Good morning, %s! It's %s.", owner, now.Format("Monday, January 2"))}

	if reading, err := s.companion.GetWeather(ctx, ""); err == nil {
		parts = append(parts, fmt.Sprintf("Today's weather: %s, %.0f degrees, wind at %.0f miles per hour.",
			reading.Description, reading.Temperature, reading.WindSpeed))
		if reading.WindSpeed < 15 {
			parts = append(parts, "Good conditions for drone flying today!")
		} else {
			parts = append(parts, "Might be too windy for drones today.")
		}
	}
	s.sendToOwner(ctx, strings.Join(parts, " "), s.defaultCompanion, true)
}

// weatherCheck logs current conditions; delivery to the owner is
// disabled by default (scheduler.py _weather_check leaves its send call
// commented out — "can add conditions later").
func (s *Scheduler) weatherCheck(ctx context.Context) {
	reading, err := s.companion.GetWeather(ctx, "")
	if err != nil {
		s.log.Warn().Err(err).Msg("scheduler: weather check failed")
		return
	}
	s.log.Info().Str("description", reading.Description).Float64("temperature", reading.Temperature).
		Msg("scheduler: weather check")
}

// auroraUrls are NOAA Space Weather Prediction Center images.
var auroraURLs = map[string]string{
	"forecast": "https://services.swpc.noaa.gov/images/aurora-forecast-northern-hemisphere.jpg",
	"kp_index": "https://services.swpc.noaa.gov/images/station-k-index.png",
}

// auroraCheck downloads the NOAA forecast and Kp-index images and sends
// them as Signal attachments with a short narration and TTS summary
// (scheduler.py _aurora_check).
func (s *Scheduler) auroraCheck(ctx context.Context) {
	s.log.Info().Msg("scheduler: running aurora forecast check")

	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		s.log.Error().Err(err).Msg("scheduler: aurora check: tempdir")
		return
	}

	var attachments []string
	defer func() {
		for _, path := range attachments {
			os.Remove(path)
		}
	}()

	for name, url := range auroraURLs {
		path, err := s.downloadImage(ctx, url, name)
		if err != nil {
			s.log.Warn().Err(err).Str("image", name).Msg("scheduler: failed to download aurora image")
			continue
		}
		attachments = append(attachments, path)
	}
	if len(attachments) == 0 {
		s.log.Warn().Msg("scheduler: no aurora images downloaded")
		return
	}

	message := "Aurora forecast update:\n\n" +
		"Attached: Northern hemisphere aurora forecast and Kp index.\n\n" +
		"The forecast image shows predicted aurora visibility. Green/yellow areas have best viewing chances. " +
		"Kp index of 5+ means possible visibility at lower latitudes."

	if err := s.sender.Send(ctx, s.ownerRecipient, "["+s.defaultCompanion+"]\n\n"+message, attachments); err != nil {
		s.log.Error().Err(err).Msg("scheduler: failed to send aurora update")
		return
	}

	audioPath := filepath.Join(s.tempDir, "aurora_"+time.Now().Format("20060102_150405")+".wav")
	voice := s.voiceFor(ctx, s.defaultCompanion)
	tts := "Aurora forecast update. I've sent you the current northern hemisphere forecast and Kp index images. " +
		"Check them to see if there's any aurora activity expected."
	if err := s.speaker.Synthesize(ctx, tts, voice, audioPath); err == nil {
		defer os.Remove(audioPath)
		if err := s.sender.Send(ctx, s.ownerRecipient, "", []string{audioPath}); err != nil {
			s.log.Warn().Err(err).Msg("scheduler: failed to send aurora audio summary")
		}
	}
}

func (s *Scheduler) downloadImage(ctx context.Context, url, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	ext := "png"
	if strings.HasSuffix(url, ".jpg") || strings.HasSuffix(url, ".jpeg") {
		ext = "jpg"
	}
	path := filepath.Join(s.tempDir, fmt.Sprintf("aurora_%s_%s.%s", name, time.Now().Format("20060102_150405"), ext))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", err
	}
	return path, nil
}

// systemHealthCheck alerts the owner of connectivity issues, suppressed
// during the quiet period (scheduler.py _system_health_check).
func (s *Scheduler) systemHealthCheck(ctx context.Context) {
	doc, err := s.store.Load()
	if err != nil {
		return
	}
	if !doc.IsTaskEnabled("health_check") {
		return
	}

	report, err := s.companion.CheckHealth(ctx, nil)
	if err != nil {
		if !doc.IsQuietPeriod(time.Now()) {
			s.sendToOwner(ctx, "System Alert: Health check failed - "+err.Error(), "System", false)
		}
		return
	}
	issues := report.Unhealthy()
	if len(issues) == 0 {
		s.log.Info().Msg("scheduler: health check: all services operational")
		return
	}
	if doc.IsQuietPeriod(time.Now()) {
		s.log.Info().Strs("issues", issues).Msg("scheduler: health check issues suppressed (quiet period)")
		return
	}
	lines := make([]string, len(issues))
	for i, name := range issues {
		lines[i] = "- " + name
	}
	s.sendToOwner(ctx, "System Alert: Service issues detected\n\n"+strings.Join(lines, "\n"), "System", false)
}

// backupDatabases uploads the configured source files, date-stamped, to
// the backup storage backend and rotates each prefix down to the
// s.backupKeep most recent (five by default; scheduler.py _backup_databases / _rotate_backups).
func (s *Scheduler) backupDatabases(ctx context.Context) {
	if s.backupStorage == nil || len(s.backupSources) == 0 {
		return
	}
	s.log.Info().Msg("scheduler: running database backup")
	uploaded, err := backup.Run(ctx, s.backupStorage, s.backupSources, time.Now(), s.backupKeep)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduler: database backup failed")
		return
	}
	if len(uploaded) == 0 {
		s.log.Warn().Msg("scheduler: database backup: no files were uploaded")
		return
	}
	s.log.Info().Strs("uploaded", uploaded).Msg("scheduler: database backup complete")
}
