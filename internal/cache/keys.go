package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix     = "user:%d"
	PostKeyPrefix     = "post:%d"
	PostsListPrefix   = "posts:recent:%d"
	postsListWildcard = "posts:recent:*"
)

const (
	UserTTL = 5 * time.Minute
	PostTTL = 30 * time.Minute
	ListTTL = 1 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// PostsListKey is the cache key for the anonymous first page of posts.
// The requested page size is part of the key so a short page cached for
// one visitor is never served to another asking for more.
func PostsListKey(limit int) string {
	return fmt.Sprintf(PostsListPrefix, limit)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

// InvalidatePostsList drops the cached first page for every page size.
func InvalidatePostsList(ctx context.Context) {
	if client == nil {
		return
	}
	keys, err := client.Keys(ctx, postsListWildcard).Result()
	if err != nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}
