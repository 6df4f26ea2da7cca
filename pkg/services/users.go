package services

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"Strimoid/models"
	"Strimoid/pkg/cache"
	"Strimoid/pkg/messaging"
)

// UserDirectory resolves users and owns the block relation. Block lookups
// are cached; concurrent misses for the same pair share one query.
type UserDirectory struct {
	db       *gorm.DB
	log      zerolog.Logger
	blocks   *cache.Cache
	blockTTL time.Duration
	group    singleflight.Group
	unblocks atomic.Uint64
}

var _ messaging.UserDirectory = (*UserDirectory)(nil)

// NewUserDirectory creates a directory. A nil cache disables caching.
func NewUserDirectory(db *gorm.DB, log zerolog.Logger, blocks *cache.Cache, ttl time.Duration) *UserDirectory {
	return &UserDirectory{db: db, log: log, blocks: blocks, blockTTL: ttl}
}

func (d *UserDirectory) ResolveByName(ctx context.Context, name string) (*models.User, error) {
	shadow := models.ShadowNameOf(name)
	if shadow == "" {
		return nil, messaging.ErrNotFound
	}
	var u models.User
	if err := d.db.WithContext(ctx).Where("shadow_name = ?", shadow).First(&u).Error; err != nil {
		return nil, persistence(err)
	}
	return &u, nil
}

func (d *UserDirectory) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := d.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, persistence(err)
	}
	return &u, nil
}

// IsBlocking reports whether blocker blocks blockee. Only positive answers
// are cached: a block made by another process is seen on the next call,
// while an unblock elsewhere may take up to the cache TTL to apply.
func (d *UserDirectory) IsBlocking(ctx context.Context, blocker, blockee uint) (bool, error) {
	key := blockKey(blocker, blockee)
	if _, ok := d.blocks.Get(key); ok {
		return true, nil
	}

	gen := d.unblocks.Load()
	v, err, _ := d.group.Do(key, func() (any, error) {
		var n int64
		err := d.db.WithContext(context.WithoutCancel(ctx)).Model(&models.UserBlocked{}).
			Where("source_id = ? AND target_id = ?", blocker, blockee).
			Count(&n).Error
		if err != nil {
			return false, persistence(err)
		}
		blocked := n > 0
		// an unblock that ran during the query must not be overwritten
		if blocked && d.unblocks.Load() == gen {
			d.blocks.Set(key, true, d.blockTTL)
		}
		return blocked, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Block makes source block target.
func (d *UserDirectory) Block(ctx context.Context, source, target uint) error {
	if source == target {
		return ErrCannotBlockSelf
	}
	b := models.UserBlocked{SourceID: source, TargetID: target}
	err := d.db.WithContext(ctx).Omit("Target").Create(&b).Error
	if isDuplicate(err) {
		return ErrAlreadyBlocked
	}
	if err != nil {
		return persistence(err)
	}
	d.blocks.Delete(blockKey(source, target))
	d.log.Info().Uint("source", source).Uint("target", target).Msg("user blocked")
	return nil
}

func (d *UserDirectory) Unblock(ctx context.Context, source, target uint) error {
	res := d.db.WithContext(ctx).
		Where("source_id = ? AND target_id = ?", source, target).
		Delete(&models.UserBlocked{})
	if res.Error != nil {
		return persistence(res.Error)
	}
	d.unblocks.Add(1)
	d.blocks.Delete(blockKey(source, target))
	if res.RowsAffected == 0 {
		return ErrNotBlocked
	}
	d.log.Info().Uint("source", source).Uint("target", target).Msg("user unblocked")
	return nil
}

// BlockedUsers lists the blocks created by uid with their targets loaded.
func (d *UserDirectory) BlockedUsers(ctx context.Context, uid uint) ([]models.UserBlocked, error) {
	var out []models.UserBlocked
	err := d.db.WithContext(ctx).Preload("Target").
		Where("source_id = ?", uid).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, persistence(err)
	}
	return out, nil
}

// Names maps user ids to display names; unknown ids are omitted.
func (d *UserDirectory) Names(ctx context.Context, ids []uint) (map[uint]string, error) {
	out := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := d.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, persistence(err)
	}
	for _, u := range users {
		out[u.ID] = u.Name
	}
	return out, nil
}

// UpdateProfile stores the profile fields of uid. An empty sex means unknown.
func (d *UserDirectory) UpdateProfile(ctx context.Context, uid uint, p models.Profile) error {
	if p.Sex == "" {
		p.Sex = models.SexUnknown
	}
	res := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ? AND removed_at IS NULL", uid).Updates(map[string]any{
		"sex":         p.Sex,
		"age":         p.Age,
		"location":    p.Location,
		"description": p.Description,
	})
	if res.Error != nil {
		return persistence(res.Error)
	}
	if res.RowsAffected == 0 {
		return d.activeOrNotFound(ctx, uid)
	}
	return nil
}

// activeOrNotFound tells an update that matched nothing apart from one that
// changed nothing: MySQL counts only changed rows.
func (d *UserDirectory) activeOrNotFound(ctx context.Context, uid uint) error {
	var n int64
	err := d.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND removed_at IS NULL", uid).
		Count(&n).Error
	if err != nil {
		return persistence(err)
	}
	if n == 0 {
		return messaging.ErrNotFound
	}
	return nil
}

// RemoveAccount marks uid removed and wipes its credentials and profile.
// The name is kept so old conversations still render; the email is replaced
// with a per-id placeholder to keep the unique index satisfied.
func (d *UserDirectory) RemoveAccount(ctx context.Context, uid uint) error {
	now := time.Now()
	res := d.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND removed_at IS NULL", uid).
		Updates(map[string]any{
			"removed_at":       now,
			"type":             models.UserTypeDeleted,
			"email":            "removed-" + strconv.FormatUint(uint64(uid), 10) + "@invalid",
			"password_hash":    "",
			"activation_token": "",
			"age":              0,
			"sex":              models.SexUnknown,
			"location":         "",
			"description":      "",
			"avatar":           "",
		})
	if res.Error != nil {
		return persistence(res.Error)
	}
	if res.RowsAffected == 0 {
		return messaging.ErrNotFound
	}
	d.log.Info().Uint("user_id", uid).Msg("account removed")
	return nil
}

// SetBanned blocks or unblocks an account at the site level. A banned
// account cannot log in.
func (d *UserDirectory) SetBanned(ctx context.Context, uid uint, banned bool) error {
	var blockedAt *time.Time
	typ := models.UserTypeUser
	if banned {
		now := time.Now()
		blockedAt = &now
		typ = models.UserTypeBanned
	}
	res := d.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND removed_at IS NULL", uid).
		Updates(map[string]any{"blocked_at": blockedAt, "type": typ})
	if res.Error != nil {
		return persistence(res.Error)
	}
	if res.RowsAffected == 0 {
		if err := d.activeOrNotFound(ctx, uid); err != nil {
			return err
		}
	}
	d.log.Info().Uint("user_id", uid).Bool("banned", banned).Msg("account ban changed")
	return nil
}

// ListActive returns every account that has not been removed, by name.
func (d *UserDirectory) ListActive(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := d.db.WithContext(ctx).Select("id", "name", "avatar").
		Where("removed_at IS NULL").
		Order("shadow_name").
		Find(&out).Error
	if err != nil {
		return nil, persistence(err)
	}
	return out, nil
}

func blockKey(blocker, blockee uint) string {
	return cache.KeyFromStrings("block", strconv.FormatUint(uint64(blocker), 10), strconv.FormatUint(uint64(blockee), 10))
}

// IsNotFound is a convenience for callers outside the messaging package.
func IsNotFound(err error) bool {
	return errors.Is(err, messaging.ErrNotFound)
}
