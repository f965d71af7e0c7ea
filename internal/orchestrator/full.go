package orchestrator

import (
	"context"
	"time"

	"github.com/Prompt-Haus/OpenVTO/internal/entity"
)

// FullRequest drives the whole chain in one call: avatar from two photos,
// try-on of the given garments, and optionally a video loop of the result.
type FullRequest struct {
	SelfieID   string
	PostureID  string
	GarmentIDs []string
	Avatar     entity.AvatarParams
	TryOn      entity.TryOnParams
	WithVideo  bool
	Video      entity.VideoLoopParams
}

// FullResult reports every artifact the chain produced, plus wall-clock
// latency for the whole run. Later fields are zero when an earlier step
// failed.
type FullResult struct {
	Avatar    entity.Avatar
	TryOn     entity.TryOnResult
	Animation *entity.AnimationResult
	LatencyMS float64
}

// RunFull executes avatar, try-on, and optional video as one sequential chain.
// The first failing step stops the chain; its error is returned together with
// whatever artifacts were produced up to that point.
func (o *Orchestrator) RunFull(ctx context.Context, req FullRequest) (out FullResult, err error) {
	started := time.Now()
	defer func() {
		out.LatencyMS = float64(time.Since(started).Milliseconds())
	}()

	avatar, err := o.RunAvatar(ctx, req.SelfieID, req.PostureID, req.Avatar)
	out.Avatar = avatar
	if err != nil {
		return out, err
	}

	if req.WithVideo {
		tryOn, animation, err := o.RunTryOnWithVideo(ctx, avatar.ID, req.GarmentIDs, req.TryOn, req.Video)
		out.TryOn = tryOn
		out.Animation = animation
		return out, err
	}

	tryOn, err := o.RunTryOn(ctx, avatar.ID, req.GarmentIDs, req.TryOn)
	out.TryOn = tryOn
	return out, err
}
