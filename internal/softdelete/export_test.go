package softdelete

const DeleteBatchSize = deleteBatchSize
