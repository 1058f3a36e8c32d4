package dto

// ImportResp CSV 批量导入结果
// 每行独立处理，失败的行不影响其他行
type ImportResp struct {
	Created    int      `json:"created"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors"`
	CreatedIDs []string `json:"createdIds,omitempty"`
}
