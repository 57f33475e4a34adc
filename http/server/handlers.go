package server

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leeforge/mediakit/captcha"
	apperrors "github.com/leeforge/mediakit/errors"
	"github.com/leeforge/mediakit/http/binding"
	"github.com/leeforge/mediakit/http/responder"
	"github.com/leeforge/mediakit/logging"
	"github.com/leeforge/mediakit/media/thumbnail"
)

const thumbnailKeyPrefix = "thumbnails/"

type verifyRequest struct {
	ID     string `json:"id" validate:"required"`
	Answer string `json:"answer" validate:"required,max=32"`
}

type imageQuery struct {
	Text   string `query:"text" validate:"required,max=32"`
	Width  int    `query:"width" default:"120" validate:"gte=1,lte=2000"`
	Height int    `query:"height" default:"40" validate:"gte=1,lte=2000"`
	Seed   *int64 `query:"seed"`
}

type thumbQuery struct {
	Width  int    `query:"width" validate:"gte=1,lte=8000"`
	Height int    `query:"height" validate:"gte=1,lte=8000"`
	Mode   string `query:"mode"`
	Format string `query:"format"`
	Strict bool   `query:"strict"`
	Store  bool   `query:"store"`
}

// ThumbnailResponse is returned when a thumbnail is uploaded instead of
// streamed back.
type ThumbnailResponse struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Mode   string `json:"mode"`
	Format string `json:"format"`
	Bytes  int64  `json:"bytes"`
}

func (s *Server) generateCaptcha(w http.ResponseWriter, r *http.Request) {
	res := responder.From(w, r)
	if s.deps.Captcha == nil {
		res.Fail(apperrors.New(apperrors.ErrorTypeNotFound, "captcha is disabled"))
		return
	}
	data, err := s.deps.Captcha.Generate(r.Context(), clientID(r))
	if err != nil {
		res.Fail(err)
		return
	}
	res.OK(data)
}

func (s *Server) verifyCaptcha(w http.ResponseWriter, r *http.Request) {
	res := responder.From(w, r)
	if s.deps.Captcha == nil {
		res.Fail(apperrors.New(apperrors.ErrorTypeNotFound, "captcha is disabled"))
		return
	}
	var body verifyRequest
	if err := binding.JSON(r, &body); err != nil {
		res.Fail(err)
		return
	}
	result, err := s.deps.Captcha.Verify(r.Context(), body.ID, body.Answer, clientID(r))
	if err != nil {
		res.Fail(err)
		return
	}
	res.OK(result)
}

// captchaImage renders arbitrary text. A fixed seed yields identical bytes.
func (s *Server) captchaImage(w http.ResponseWriter, r *http.Request) {
	res := responder.From(w, r)
	var q imageQuery
	if err := binding.Query(r, &q); err != nil {
		res.Fail(err)
		return
	}

	seed := uuid.New().ID()
	rng := captcha.NewLockedRand(int64(seed))
	if q.Seed != nil {
		rng = captcha.NewLockedRand(*q.Seed)
	}

	img, err := s.deps.Renderer.Render(q.Text, q.Width, q.Height, rng)
	if err != nil {
		res.Fail(err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	res.Binary(http.StatusOK, "image/png", img)
}

func (s *Server) createThumbnail(w http.ResponseWriter, r *http.Request) {
	res := responder.From(w, r)
	q := thumbQuery{
		Width:  s.deps.Thumbnail.Width,
		Height: s.deps.Thumbnail.Height,
		Mode:   s.deps.Thumbnail.Mode,
	}
	if err := binding.Query(r, &q); err != nil {
		res.Fail(err)
		return
	}
	mode, err := thumbnail.ParseMode(q.Mode)
	if err != nil {
		res.Fail(err)
		return
	}
	format, err := thumbnail.ParseFormat(q.Format)
	if err != nil {
		res.Fail(err)
		return
	}
	if q.Store && s.deps.Storage == nil {
		res.Fail(apperrors.New(apperrors.ErrorTypeConflict, "no storage provider configured"))
		return
	}

	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}
	defer r.Body.Close()

	var out bytes.Buffer
	result, err := s.deps.Thumbnailer.Make(r.Context(), r.Body, &out, thumbnail.Request{
		Width:  q.Width,
		Height: q.Height,
		Mode:   mode,
		Strict: q.Strict,
		Format: format,
	})
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = apperrors.New(apperrors.ErrorTypeInvalidArgument, "upload too large").
				WithDetail("limit", tooLarge.Limit).
				WithHTTPStatus(http.StatusRequestEntityTooLarge)
		}
		res.Fail(err)
		return
	}

	if !q.Store {
		res.Binary(http.StatusOK, result.Format.ContentType(), out.Bytes())
		return
	}

	key := thumbnailKeyPrefix + uuid.NewString() + result.Format.Ext()
	url, err := s.deps.Storage.Put(r.Context(), key, &out, result.Format.ContentType())
	if err != nil {
		res.Fail(err)
		return
	}
	logging.FromContext(r.Context()).Info("thumbnail stored",
		zap.String("key", key),
		zap.String("provider", s.deps.Storage.Name()),
	)
	res.Created(ThumbnailResponse{
		Key:    key,
		URL:    url,
		Width:  result.Plan.CanvasWidth,
		Height: result.Plan.CanvasHeight,
		Mode:   result.Plan.Effective.String(),
		Format: string(result.Format),
		Bytes:  result.Bytes,
	})
}
