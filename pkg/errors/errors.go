package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrLockNotAcquired 分布式锁被其他请求持有
var ErrLockNotAcquired = errors.New("操作正在处理中，请稍后重试")
