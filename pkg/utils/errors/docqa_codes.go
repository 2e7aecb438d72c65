package errors

import "google.golang.org/grpc/codes"

// 文档问答服务代码: 21 (业务服务范围 20-79)
// 错误码格式: AABBCCC
// - AA: 21 (docqa 服务)
// - BB: 类别代码
// - CCC: 序号

const (
	// ServiceDocQA is for the document question-answering service.
	ServiceDocQA = 21
)

var (
	// 请求参数错误 (类别 01)
	ErrEmptyQuestion = Register(New(MakeCode(ServiceDocQA, CategoryRequest, 1), 400, codes.InvalidArgument, "Question must not be empty", "问题不能为空"))
	ErrFileTooLarge  = Register(New(MakeCode(ServiceDocQA, CategoryRequest, 2), 413, codes.InvalidArgument, "Uploaded file exceeds size limit", "上传文件超过大小限制"))
	ErrInvalidPDF    = Register(New(MakeCode(ServiceDocQA, CategoryRequest, 3), 400, codes.InvalidArgument, "Invalid or corrupted PDF file", "PDF 文件无效或已损坏"))
	ErrEncryptedPDF  = Register(New(MakeCode(ServiceDocQA, CategoryRequest, 4), 400, codes.InvalidArgument, "Encrypted PDF is not supported", "不支持加密的 PDF 文件"))

	// 文档处理错误 (类别 01/07)
	ErrNoExtractableText = Register(New(MakeCode(ServiceDocQA, CategoryRequest, 5), 400, codes.InvalidArgument, "No extractable text found in PDF", "PDF 中未找到可提取的文本"))
	ErrInvalidChunking   = Register(New(MakeCode(ServiceDocQA, CategoryConfig, 1), 500, codes.Internal, "Invalid chunking parameters", "分块参数无效"))
	ErrIngestFailed      = Register(New(MakeCode(ServiceDocQA, CategoryInternal, 1), 500, codes.Internal, "Document ingestion failed", "文档入库失败"))
	ErrQueryFailed       = Register(New(MakeCode(ServiceDocQA, CategoryInternal, 2), 500, codes.Internal, "Question answering failed", "问答处理失败"))

	// 向量存储错误 (类别 05/10)
	ErrSchemaMismatch   = Register(New(MakeCode(ServiceDocQA, CategoryConflict, 1), 409, codes.FailedPrecondition, "Collection schema mismatch", "集合 Schema 不匹配"))
	ErrStoreUnavailable = Register(New(MakeCode(ServiceDocQA, CategoryNetwork, 1), 503, codes.Unavailable, "Vector store unavailable", "向量存储不可用"))

	// 外部模型服务错误 (类别 10/11)
	ErrEmbeddingService = Register(New(MakeCode(ServiceDocQA, CategoryNetwork, 2), 502, codes.Unavailable, "Embedding service request failed", "向量化服务请求失败"))
	ErrChatService      = Register(New(MakeCode(ServiceDocQA, CategoryNetwork, 3), 502, codes.Unavailable, "Chat completion service request failed", "生成服务请求失败"))
	ErrOperationTimeout = Register(New(MakeCode(ServiceDocQA, CategoryTimeout, 1), 504, codes.DeadlineExceeded, "Operation timeout", "操作超时"))
)
