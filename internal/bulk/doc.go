// Package bulk готовит векторы к загрузке через bulk API поискового движка.
//
// Transform превращает блок векторов в чередующуюся последовательность
// action/payload:
//
//	batch := bulk.Transform(vectors, "embedding", bulk.IndexAction("target"), 1000)
//	// [{"index": {"_index": "target", "_id": "1000"}}, {"embedding": [...]},
//	//  {"index": {"_index": "target", "_id": "1001"}}, {"embedding": [...]}, ...]
//
// Partitions делит набор из n записей на последовательные диапазоны,
// offset каждого диапазона передаётся в Transform, поэтому id не
// пересекаются между блоками.
//
// EncodeNDJSON сериализует batch в тело запроса _bulk.
package bulk
