package session

import (
	"context"

	"github.com/PerezAngel/iep-bedrock-studio/internal/api"
	"github.com/PerezAngel/iep-bedrock-studio/internal/errors"
)

// GenerateImage asks the backend for a rendering and refreshes the
// gallery afterwards. Image state is independent of the content phase
// machine; a generation in the editor does not block the images tab.
func (c *Controller) GenerateImage(ctx context.Context, prompt string, style api.ImageStyle) error {
	if !api.ValidImageStyle(style) {
		return errors.New(errors.ErrCodeImageStyleUnknown, "unknown image style: "+string(style)).
			WithSuggestion("Use one of: realista, anime, oleo")
	}

	url, err := c.client.GenerateImage(ctx, prompt, style)
	if err != nil {
		imgErr := errors.NewImageGenerateFailedError(err)
		c.mu.Lock()
		c.imageErr = imgErr
		c.mu.Unlock()
		c.logger.WithError(imgErr).Warn("image generation failed")
		return imgErr
	}

	c.mu.Lock()
	c.lastImageURL = url
	c.imageErr = nil
	c.mu.Unlock()

	c.RefreshGallery(ctx)
	return nil
}

// RefreshGallery fetches the recent-images list. Failures are silently
// ignored: the gallery keeps whatever it had.
func (c *Controller) RefreshGallery(ctx context.Context) {
	images, err := c.client.RecentImages(ctx)
	if err != nil {
		c.logger.Debug("gallery refresh skipped", "error", err.Error())
		return
	}

	c.mu.Lock()
	c.gallery = images
	c.mu.Unlock()
}
