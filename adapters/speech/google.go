package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/satriahrh/cocoa-fruit/teacher/domain"
)

const sampleRateHertz = 16000

var ErrNoSpeech = errors.New("no speech recognized")

type GoogleSpeech struct {
	client       *speech.Client
	languageCode string
}

var _ domain.Transcriber = (*GoogleSpeech)(nil)

// NewGoogleSpeech uses application default credentials.
func NewGoogleSpeech(ctx context.Context, languageCode string) (*GoogleSpeech, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating Google speech client: %w", err)
	}
	return &GoogleSpeech{
		client:       client,
		languageCode: languageCode,
	}, nil
}

// Transcribe recognizes 16kHz LINEAR16 audio and returns the best transcript.
func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte) (string, error) {
	resp, err := g.client.Recognize(ctx, recognizeRequest(audio, g.languageCode))
	if err != nil {
		return "", fmt.Errorf("recognizing speech: %w", err)
	}
	return transcript(resp)
}

func recognizeRequest(audio []byte, languageCode string) *speechpb.RecognizeRequest {
	return &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            sampleRateHertz,
			LanguageCode:               languageCode,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}
}

func transcript(resp *speechpb.RecognizeResponse) (string, error) {
	var parts []string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoSpeech
	}
	return strings.Join(parts, " "), nil
}

func (g *GoogleSpeech) Close() error {
	return g.client.Close()
}
