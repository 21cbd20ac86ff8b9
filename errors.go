package vmesh

import "errors"

// Every error returned by this package wraps exactly one of these.
var (
	// ErrSchemaMismatch 请求的语义不在网格声明的顶点布局中，或布局/索引类型在已有数据时被修改
	ErrSchemaMismatch = errors.New("vmesh: schema mismatch")
	// ErrShapeMismatch 分量个数或编码宽度与声明不一致
	ErrShapeMismatch = errors.New("vmesh: shape mismatch")
	// ErrBoundary 游标在第一次前进之前或越过最后一个元素后被使用
	ErrBoundary = errors.New("vmesh: out of bounds")
	// ErrFormat 文档或文件中出现无法识别的名称、缺失字段或损坏的数据
	ErrFormat = errors.New("vmesh: format error")
	// ErrOverflow 数值超出目标编码可表示的范围
	ErrOverflow = errors.New("vmesh: overflow")
)
