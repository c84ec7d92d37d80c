package utils

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kiranasoft/kirana_backend/config"
)

var mutex sync.Mutex

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

/* Redis */

// store instance, obj should be a pointer
func StoreRedis[T any](obj any, id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.SetRedisObject(key, &obj, GetCacheLifespan())
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](id int) (*T, error) {
	var result *T
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// remove an instance, Type:$id
func RemoveRedisItem[T any](id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.RemoveRedisKey(key)
}

// store a singleton object (settings etc.), key Type:singleton
func StoreRedisSingleton[T any](obj any) error {
	key := GetTypeName[T]() + ":singleton"
	return config.SetRedisObject(key, &obj, 0)
}

func RetrieveRedisSingleton[T any]() (*T, error) {
	var result *T
	key := GetTypeName[T]() + ":singleton"
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

func RemoveRedisSingleton[T any]() error {
	key := GetTypeName[T]() + ":singleton"
	return config.RemoveRedisKey(key)
}

// GetSequence issues the next value of the shared sales sequence counter.
// Redis INCR is the single atomic increment; the process-wide mutex only
// serializes the cold-start seeding path below.
//
// Cold counter (fresh Redis): seed from max(sequence_no) already persisted,
// or the configured starting number, whichever is larger. The issued value is
// re-checked for uniqueness against the table before use, so a stale Redis
// snapshot can never hand out a number an existing row already owns.
func GetSequence[T any](ctx context.Context, seed func(ctx context.Context) (int64, error)) (int64, error) {
	mutex.Lock()
	defer mutex.Unlock()

	cacheKey := strings.ToLower(GetTypeName[T]()) + "_seq"
	var seqNo int64
	var err error

	for {
		seqNo, err = config.GetRedisCounter(ctx, cacheKey)
		if err != nil {
			return 0, err
		}
		if seqNo <= 1 {
			dbSeq, err := seed(ctx)
			if err != nil {
				return 0, err
			}
			seqNo = dbSeq + 1
			if err := config.SetRedisObject(cacheKey, &seqNo, 0); err != nil {
				return 0, err
			}
		}
		// ensure no persisted row already carries this sequence number
		err = ValidateUnique[T](ctx, "sequence_no", seqNo, 0)
		if err == nil {
			break
		}
	}
	return seqNo, nil
}
