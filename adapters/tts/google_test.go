package tts

import (
	"testing"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/stretchr/testify/assert"
)

func TestSynthesizeRequest(t *testing.T) {
	req := synthesizeRequest("# Hello", "en-US")

	assert.Equal(t, "# Hello", req.GetInput().GetText())
	assert.Equal(t, "en-US", req.GetVoice().GetLanguageCode())
	assert.Equal(t, texttospeechpb.AudioEncoding_MP3, req.GetAudioConfig().GetAudioEncoding())
}
