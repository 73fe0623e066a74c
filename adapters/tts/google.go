package tts

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	"github.com/satriahrh/cocoa-fruit/teacher/domain"
)

type GoogleTTS struct {
	client       *texttospeech.Client
	languageCode string
}

var _ domain.Synthesizer = (*GoogleTTS)(nil)

// NewGoogleTTS uses application default credentials.
func NewGoogleTTS(ctx context.Context, languageCode string) (*GoogleTTS, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating Google tts client: %w", err)
	}
	return &GoogleTTS{
		client:       client,
		languageCode: languageCode,
	}, nil
}

// Synthesize reads text aloud and returns MP3 audio.
func (g *GoogleTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := g.client.SynthesizeSpeech(ctx, synthesizeRequest(text, g.languageCode))
	if err != nil {
		return nil, fmt.Errorf("synthesizing speech: %w", err)
	}

	return resp.GetAudioContent(), nil
}

func synthesizeRequest(text, languageCode string) *texttospeechpb.SynthesizeSpeechRequest {
	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{
				Text: text,
			},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: languageCode,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_NEUTRAL,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}
}

func (g *GoogleTTS) Close() error {
	return g.client.Close()
}
