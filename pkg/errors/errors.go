package errors

import "errors"

// ── 通用错误分类 ──
// 各业务模块的哨兵错误通过 %w 包装以下分类，Handler 层可按分类统一映射

var (
	// ErrPrecondition 前置条件不满足（如基础数据缺失），不自动重试
	ErrPrecondition = errors.New("前置条件不满足")

	// ErrPersistence 持久化失败（写入配置、草稿、正式课表或通知时）
	ErrPersistence = errors.New("数据持久化失败")

	// ErrInvalidState 状态机不允许当前操作
	ErrInvalidState = errors.New("当前状态不允许此操作")
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")
