package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/Prompt-Haus/OpenVTO/internal/entity"
	"github.com/Prompt-Haus/OpenVTO/internal/media"
	"github.com/Prompt-Haus/OpenVTO/internal/store"
	"github.com/Prompt-Haus/OpenVTO/internal/vto"
	"github.com/sirupsen/logrus"
)

// ErrNotReady marks a pipeline precondition failure: the required inputs are
// not present or not completed yet. No artifact is created in that case.
var ErrNotReady = errors.New("orchestrator: pipeline preconditions not met")

// Orchestrator sequences generation calls into the user-facing pipelines,
// driving the per-artifact status machine and committing outcomes to the store.
// Each invocation operates on a freshly created artifact identity, so no two
// pipelines ever race on the same artifact.
type Orchestrator struct {
	store  *store.Store
	client vto.GenerationClient
	codec  *media.Codec
}

func New(st *store.Store, client vto.GenerationClient, codec *media.Codec) *Orchestrator {
	return &Orchestrator{store: st, client: client, codec: codec}
}

// RunAvatar generates a studio avatar from two stored photos. The artifact is
// registered as pending before any network call, moves to processing for the
// request, and ends completed or failed. The returned avatar reflects the
// terminal state; err is non-nil exactly when the pipeline failed.
func (o *Orchestrator) RunAvatar(ctx context.Context, selfieID, postureID string, params entity.AvatarParams) (entity.Avatar, error) {
	selfie, ok := o.store.Photo(selfieID)
	if !ok {
		return entity.Avatar{}, fmt.Errorf("%w: selfie photo %s not found", ErrNotReady, selfieID)
	}
	posture, ok := o.store.Photo(postureID)
	if !ok {
		return entity.Avatar{}, fmt.Errorf("%w: posture photo %s not found", ErrNotReady, postureID)
	}

	avatar := o.store.CreateAvatar(selfieID, postureID)
	log := logrus.WithFields(logrus.Fields{"pipeline": "avatar", "artifact_id": avatar.ID})
	log.Info("avatar_pipeline_started")

	fail := func(message string) (entity.Avatar, error) {
		_ = o.store.UpdateAvatarStatus(avatar.ID, entity.StatusFailed, entity.WithError(message))
		log.WithField("error", message).Warn("avatar_pipeline_failed")
		current, _ := o.store.Avatar(avatar.ID)
		return current, errors.New(message)
	}

	if err := o.store.UpdateAvatarStatus(avatar.ID, entity.StatusProcessing, entity.ArtifactUpdates{}); err != nil {
		return fail(err.Error())
	}

	selfieBlob, err := o.codec.Encode(ctx, selfie.URI)
	if err != nil {
		return fail(fmt.Sprintf("encode selfie: %v", err))
	}
	postureBlob, err := o.codec.Encode(ctx, posture.URI)
	if err != nil {
		return fail(fmt.Sprintf("encode posture: %v", err))
	}

	result := o.client.RequestAvatar(ctx, selfieBlob, postureBlob, params)
	if !result.Success {
		return fail(result.Error)
	}

	output := media.DisplayLocator(result.Image)
	if err := o.store.UpdateAvatarStatus(avatar.ID, entity.StatusCompleted, entity.WithOutput(output)); err != nil {
		return fail(err.Error())
	}
	log.Info("avatar_pipeline_completed")

	current, _ := o.store.Avatar(avatar.ID)
	return current, nil
}

// RunTryOn composites the selected garments onto a completed avatar. On
// success the composed image is appended to history.
func (o *Orchestrator) RunTryOn(ctx context.Context, avatarID string, garmentIDs []string, params entity.TryOnParams) (entity.TryOnResult, error) {
	result, err := o.runTryOnStep(ctx, avatarID, garmentIDs, params)
	if err != nil {
		return result, err
	}
	o.store.AppendHistory("image", result.OutputURI, "")
	return result, nil
}

// RunTryOnWithVideo runs the try-on pipeline and, on success, chains a
// video-loop call on the composed image. A try-on failure skips the video step
// entirely. A video failure after a successful try-on leaves the completed
// try-on intact and usable; the error reports the video failure. History gets
// exactly one entry, and only when the video succeeds.
func (o *Orchestrator) RunTryOnWithVideo(ctx context.Context, avatarID string, garmentIDs []string, tryOnParams entity.TryOnParams, videoParams entity.VideoLoopParams) (entity.TryOnResult, *entity.AnimationResult, error) {
	tryOn, err := o.runTryOnStep(ctx, avatarID, garmentIDs, tryOnParams)
	if err != nil {
		return tryOn, nil, err
	}

	animation, err := o.runVideoStep(ctx, tryOn, videoParams)
	if err != nil {
		return tryOn, animation, err
	}

	o.store.AppendHistory("video", animation.OutputURI, animation.FirstFrameURI)
	return tryOn, animation, nil
}

// runTryOnStep executes the try-on state machine without committing history.
func (o *Orchestrator) runTryOnStep(ctx context.Context, avatarID string, garmentIDs []string, params entity.TryOnParams) (entity.TryOnResult, error) {
	avatar, ok := o.store.Avatar(avatarID)
	if !ok {
		return entity.TryOnResult{}, fmt.Errorf("%w: avatar %s not found", ErrNotReady, avatarID)
	}
	if avatar.Status != entity.StatusCompleted {
		return entity.TryOnResult{}, fmt.Errorf("%w: avatar %s is %s, not completed", ErrNotReady, avatarID, avatar.Status)
	}
	if len(garmentIDs) == 0 {
		return entity.TryOnResult{}, fmt.Errorf("%w: no garments selected", ErrNotReady)
	}
	garments := make([]entity.ClothingItem, 0, len(garmentIDs))
	for _, id := range garmentIDs {
		item, ok := o.store.ClothingItem(id)
		if !ok {
			return entity.TryOnResult{}, fmt.Errorf("%w: clothing item %s not found", ErrNotReady, id)
		}
		garments = append(garments, item)
	}

	result := o.store.CreateTryOn(avatarID, garmentIDs)
	log := logrus.WithFields(logrus.Fields{"pipeline": "tryon", "artifact_id": result.ID, "garments": len(garments)})
	log.Info("tryon_pipeline_started")

	fail := func(message string) (entity.TryOnResult, error) {
		_ = o.store.UpdateTryOnStatus(result.ID, entity.StatusFailed, entity.WithError(message))
		log.WithField("error", message).Warn("tryon_pipeline_failed")
		current, _ := o.store.TryOn(result.ID)
		return current, errors.New(message)
	}

	if err := o.store.UpdateTryOnStatus(result.ID, entity.StatusProcessing, entity.ArtifactUpdates{}); err != nil {
		return fail(err.Error())
	}

	avatarBlob, err := o.codec.Encode(ctx, avatar.OutputURI)
	if err != nil {
		return fail(fmt.Sprintf("encode avatar: %v", err))
	}
	garmentBlobs := make([]entity.MediaBlob, 0, len(garments))
	for _, garment := range garments {
		blob, err := o.codec.Encode(ctx, garment.URI)
		if err != nil {
			return fail(fmt.Sprintf("encode garment %s: %v", garment.ID, err))
		}
		garmentBlobs = append(garmentBlobs, blob)
	}

	generated := o.client.RequestTryOn(ctx, avatarBlob, garmentBlobs, params)
	if !generated.Success {
		return fail(generated.Error)
	}

	output := media.DisplayLocator(generated.Image)
	if err := o.store.UpdateTryOnStatus(result.ID, entity.StatusCompleted, entity.WithOutput(output)); err != nil {
		return fail(err.Error())
	}
	log.Info("tryon_pipeline_completed")

	current, _ := o.store.TryOn(result.ID)
	return current, nil
}

// runVideoStep animates a completed try-on image. The animation artifact gets
// its own identity and state machine; the source try-on is never touched.
func (o *Orchestrator) runVideoStep(ctx context.Context, tryOn entity.TryOnResult, params entity.VideoLoopParams) (*entity.AnimationResult, error) {
	mode := params.Mode
	if mode == "" {
		mode = entity.DefaultVideoMode
	}

	animation := o.store.CreateAnimation(tryOn.ID, mode)
	log := logrus.WithFields(logrus.Fields{"pipeline": "videoloop", "artifact_id": animation.ID, "source_id": tryOn.ID})
	log.Info("video_pipeline_started")

	fail := func(message string) (*entity.AnimationResult, error) {
		_ = o.store.UpdateAnimationStatus(animation.ID, entity.StatusFailed, entity.WithError(message))
		log.WithField("error", message).Warn("video_pipeline_failed")
		current, _ := o.store.Animation(animation.ID)
		return &current, errors.New(message)
	}

	if err := o.store.UpdateAnimationStatus(animation.ID, entity.StatusProcessing, entity.ArtifactUpdates{}); err != nil {
		return fail(err.Error())
	}

	imageBlob, err := o.codec.Encode(ctx, tryOn.OutputURI)
	if err != nil {
		return fail(fmt.Sprintf("encode try-on output: %v", err))
	}

	generated := o.client.RequestVideoLoop(ctx, imageBlob, params)
	if !generated.Success {
		return fail(generated.Error)
	}

	updates := entity.WithOutput(media.DisplayLocator(generated.Video))
	firstFrame := media.DisplayLocator(generated.FirstFrame)
	updates.FirstFrameURI = &firstFrame
	if err := o.store.UpdateAnimationStatus(animation.ID, entity.StatusCompleted, updates); err != nil {
		return fail(err.Error())
	}
	log.Info("video_pipeline_completed")

	current, _ := o.store.Animation(animation.ID)
	return &current, nil
}
